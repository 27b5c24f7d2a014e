package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// Share links live in a top-level collection so tokens can be resolved
// without knowing the owner: share_links/{linkId}.

func sharePath(linkID string) string {
	return fmt.Sprintf("/share_links/%s", url.PathEscape(linkID))
}

// fetchShareLink reads one link document. Not-found is resolved after
// Protect so a missing link is never retried or counted as a breaker
// failure.
func (c *Client) fetchShareLink(ctx context.Context, linkID string) (*domain.ShareLink, error) {
	var body []byte
	err := resilience.Protect(ctx, c.cb, c.cfg, func() error {
		b, err := c.doRequest(ctx, http.MethodGet, c.docURL(sharePath(linkID), nil), nil)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	if body == nil {
		return nil, &domain.ErrNotFound{Resource: "share_link", ID: linkID}
	}

	var doc fsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode share link: %w", err)
	}
	return decodeShareLink(doc), nil
}

// writeShareLink replaces the link document's fields.
func (c *Client) writeShareLink(ctx context.Context, link *domain.ShareLink) error {
	return resilience.Protect(ctx, c.cb, c.cfg, func() error {
		payload := fsDocument{Fields: encodeShareLink(link)}
		_, err := c.doRequest(ctx, http.MethodPatch, c.docURL(sharePath(link.ID), nil), payload)
		return err
	})
}

// CreateShareLink writes a new share link document.
func (c *Client) CreateShareLink(ctx context.Context, link *domain.ShareLink) (*domain.ShareLink, error) {
	ctx, span := tracer.Start(ctx, "Firestore.CreateShareLink")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", link.BillID))

	var body []byte
	err := resilience.Protect(ctx, c.cb, c.cfg, func() error {
		query := url.Values{}
		query.Set("documentId", link.ID)

		payload := fsDocument{Fields: encodeShareLink(link)}
		b, err := c.doRequest(ctx, http.MethodPost, c.docURL("/share_links", query), payload)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("share_links", err)
	}

	var doc fsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, wrapStoreErr("share_links", fmt.Errorf("decode created share link: %w", err))
	}
	return decodeShareLink(doc), nil
}

// GetShareLinkByTokenID looks up a share link by its JWT id claim.
func (c *Client) GetShareLinkByTokenID(ctx context.Context, tokenID string) (*domain.ShareLink, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetShareLinkByTokenID")
	defer span.End()

	// An empty result set is a normal answer; only transport failures go
	// through the retry/breaker path.
	var docs []fsDocument
	err := resilience.Protect(ctx, c.cb, c.cfg, func() error {
		d, err := c.runQuery(ctx, map[string]any{
			"from": []map[string]any{{"collectionId": "share_links"}},
			"where": map[string]any{
				"fieldFilter": map[string]any{
					"field": map[string]any{"fieldPath": "token_id"},
					"op":    "EQUAL",
					"value": map[string]any{"stringValue": tokenID},
				},
			},
			"limit": 1,
		})
		if err != nil {
			return err
		}
		docs = d
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("share_links", err)
	}
	if len(docs) == 0 {
		return nil, &domain.ErrNotFound{Resource: "share_link", ID: tokenID}
	}
	return decodeShareLink(docs[0]), nil
}

// RevokeShareLink marks a link revoked. Only the owner may revoke.
func (c *Client) RevokeShareLink(ctx context.Context, userID, linkID string) error {
	ctx, span := tracer.Start(ctx, "Firestore.RevokeShareLink")
	defer span.End()
	span.SetAttributes(attribute.String("link.id", linkID))

	link, err := c.fetchShareLink(ctx, linkID)
	if err != nil {
		return wrapStoreErr("share_links", err)
	}
	if link.UserID != userID {
		return &domain.ErrForbidden{Action: "revoke share link"}
	}

	link.Revoked = true
	if err := c.writeShareLink(ctx, link); err != nil {
		return wrapStoreErr("share_links", err)
	}
	return nil
}

// IncrementViewCount bumps the link's view counter. Read-modify-write is
// fine here: the count is informational, not a quota.
func (c *Client) IncrementViewCount(ctx context.Context, linkID string) error {
	ctx, span := tracer.Start(ctx, "Firestore.IncrementViewCount")
	defer span.End()
	span.SetAttributes(attribute.String("link.id", linkID))

	link, err := c.fetchShareLink(ctx, linkID)
	if err != nil {
		return wrapStoreErr("share_links", err)
	}

	link.ViewCount++
	if err := c.writeShareLink(ctx, link); err != nil {
		return wrapStoreErr("share_links", err)
	}
	return nil
}
