package firestore

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pwasut/harnkan/internal/domain"
	"github.com/pwasut/harnkan/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// Bills live in a per-user subcollection: users/{userId}/bills/{billId}.

const listPageSize = 300

func billsPath(userID string) string {
	return fmt.Sprintf("/users/%s/bills", url.PathEscape(userID))
}

func billPath(userID, billID string) string {
	return fmt.Sprintf("/users/%s/bills/%s", url.PathEscape(userID), url.PathEscape(billID))
}

// ListBills fetches all bills for a user, following page tokens.
func (c *Client) ListBills(ctx context.Context, userID string) ([]domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Firestore.ListBills")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var bills []domain.Bill

	err := resilience.Protect(ctx, c.cb, c.cfg, func() error {
		bills = bills[:0]
		pageToken := ""
		for {
			query := url.Values{}
			query.Set("pageSize", strconv.Itoa(listPageSize))
			if pageToken != "" {
				query.Set("pageToken", pageToken)
			}

			body, err := c.doRequest(ctx, http.MethodGet, c.docURL(billsPath(userID), query), nil)
			if err != nil {
				return err
			}
			if body == nil {
				return nil // empty collection
			}

			var page fsListResponse
			if err := json.Unmarshal(body, &page); err != nil {
				return fmt.Errorf("decode bills page: %w", err)
			}
			for _, doc := range page.Documents {
				bills = append(bills, *decodeBill(doc))
			}

			if page.NextPageToken == "" {
				return nil
			}
			pageToken = page.NextPageToken
		}
	})
	if err != nil {
		return nil, wrapStoreErr("bills", err)
	}

	if bills == nil {
		bills = []domain.Bill{}
	}
	return bills, nil
}

// GetBill fetches a single bill.
func (c *Client) GetBill(ctx context.Context, userID, billID string) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Firestore.GetBill")
	defer span.End()
	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("bill.id", billID),
	)

	// Not-found is resolved after Protect: a missing document is a normal
	// answer, not a failure to retry or count against the breaker.
	var body []byte
	err := resilience.Protect(ctx, c.cb, c.cfg, func() error {
		b, err := c.doRequest(ctx, http.MethodGet, c.docURL(billPath(userID, billID), nil), nil)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("bills", err)
	}
	if body == nil {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: billID}
	}

	var doc fsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, wrapStoreErr("bills", fmt.Errorf("decode bill: %w", err))
	}
	return decodeBill(doc), nil
}

// CreateBill writes a new bill document using the bill's id as document id.
func (c *Client) CreateBill(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Firestore.CreateBill")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", bill.ID))

	var body []byte
	err := resilience.Protect(ctx, c.cb, c.cfg, func() error {
		query := url.Values{}
		query.Set("documentId", bill.ID)

		payload := fsDocument{Fields: encodeBill(bill)}
		b, err := c.doRequest(ctx, http.MethodPost, c.docURL(billsPath(bill.UserID), query), payload)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("bills", err)
	}

	var doc fsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, wrapStoreErr("bills", fmt.Errorf("decode created bill: %w", err))
	}
	created := decodeBill(doc)
	created.UserID = bill.UserID
	return created, nil
}

// UpdateBill replaces the bill document's fields.
func (c *Client) UpdateBill(ctx context.Context, bill *domain.Bill) (*domain.Bill, error) {
	ctx, span := tracer.Start(ctx, "Firestore.UpdateBill")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", bill.ID))

	var body []byte
	err := resilience.Protect(ctx, c.cb, c.cfg, func() error {
		payload := fsDocument{Fields: encodeBill(bill)}
		b, err := c.doRequest(ctx, http.MethodPatch, c.docURL(billPath(bill.UserID, bill.ID), nil), payload)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, wrapStoreErr("bills", err)
	}
	if body == nil {
		return nil, &domain.ErrNotFound{Resource: "bill", ID: bill.ID}
	}

	var doc fsDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, wrapStoreErr("bills", fmt.Errorf("decode updated bill: %w", err))
	}
	updated := decodeBill(doc)
	updated.UserID = bill.UserID
	return updated, nil
}

// DeleteBill removes the bill document. Firestore deletes are idempotent,
// so a missing document is not an error.
func (c *Client) DeleteBill(ctx context.Context, userID, billID string) error {
	ctx, span := tracer.Start(ctx, "Firestore.DeleteBill")
	defer span.End()
	span.SetAttributes(attribute.String("bill.id", billID))

	err := resilience.Protect(ctx, c.cb, c.cfg, func() error {
		_, err := c.doRequest(ctx, http.MethodDelete, c.docURL(billPath(userID, billID), nil), nil)
		return err
	})
	if err != nil {
		return wrapStoreErr("bills", err)
	}
	return nil
}

// wrapStoreErr keeps domain errors intact and wraps everything else as an
// external service failure.
func wrapStoreErr(collection string, err error) error {
	switch err.(type) {
	case *domain.ErrNotFound, *domain.ErrCircuitOpen, *domain.ErrForbidden:
		return err
	}
	return &domain.ErrExternalService{Service: "firestore/" + collection, Err: err}
}
