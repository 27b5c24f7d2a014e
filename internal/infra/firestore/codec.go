package firestore

import (
	"strconv"
	"strings"
	"time"

	"github.com/pwasut/harnkan/internal/domain"
)

// Firestore's REST API wraps every field in a typed value object. The
// types below model just the subset this service stores. Decoding is
// lenient: a missing or differently-typed field degrades to the zero
// value instead of failing the whole document.

type fsValue struct {
	StringValue    *string  `json:"stringValue,omitempty"`
	DoubleValue    *float64 `json:"doubleValue,omitempty"`
	IntegerValue   *string  `json:"integerValue,omitempty"`
	BooleanValue   *bool    `json:"booleanValue,omitempty"`
	TimestampValue *string  `json:"timestampValue,omitempty"`
	ArrayValue     *fsArray `json:"arrayValue,omitempty"`
	MapValue       *fsMap   `json:"mapValue,omitempty"`
}

type fsArray struct {
	Values []fsValue `json:"values,omitempty"`
}

type fsMap struct {
	Fields map[string]fsValue `json:"fields,omitempty"`
}

type fsDocument struct {
	Name   string             `json:"name,omitempty"`
	Fields map[string]fsValue `json:"fields,omitempty"`
}

type fsListResponse struct {
	Documents     []fsDocument `json:"documents"`
	NextPageToken string       `json:"nextPageToken"`
}

// docID extracts the document id from a full resource name like
// "projects/p/databases/(default)/documents/users/u1/bills/b1".
func docID(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// --- encode helpers ---

func strVal(s string) fsValue  { return fsValue{StringValue: &s} }
func numVal(f float64) fsValue { return fsValue{DoubleValue: &f} }
func boolVal(b bool) fsValue   { return fsValue{BooleanValue: &b} }

func intVal(n int) fsValue {
	s := strconv.Itoa(n)
	return fsValue{IntegerValue: &s}
}

func tsVal(t time.Time) fsValue {
	s := t.UTC().Format(time.RFC3339Nano)
	return fsValue{TimestampValue: &s}
}

// --- decode helpers ---

func getString(fields map[string]fsValue, key string) string {
	if v, ok := fields[key]; ok && v.StringValue != nil {
		return *v.StringValue
	}
	return ""
}

func getFloat(fields map[string]fsValue, key string) float64 {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	if v.DoubleValue != nil {
		return *v.DoubleValue
	}
	if v.IntegerValue != nil {
		if f, err := strconv.ParseFloat(*v.IntegerValue, 64); err == nil {
			return f
		}
	}
	return 0
}

func getInt(fields map[string]fsValue, key string) int {
	v, ok := fields[key]
	if !ok {
		return 0
	}
	if v.IntegerValue != nil {
		if n, err := strconv.Atoi(*v.IntegerValue); err == nil {
			return n
		}
	}
	if v.DoubleValue != nil {
		return int(*v.DoubleValue)
	}
	return 0
}

func getBool(fields map[string]fsValue, key string) bool {
	if v, ok := fields[key]; ok && v.BooleanValue != nil {
		return *v.BooleanValue
	}
	return false
}

func getTime(fields map[string]fsValue, key string) time.Time {
	v, ok := fields[key]
	if !ok {
		return time.Time{}
	}
	raw := ""
	if v.TimestampValue != nil {
		raw = *v.TimestampValue
	} else if v.StringValue != nil {
		raw = *v.StringValue
	}
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return time.Time{}
}

func getArray(fields map[string]fsValue, key string) []fsValue {
	if v, ok := fields[key]; ok && v.ArrayValue != nil {
		return v.ArrayValue.Values
	}
	return nil
}

// --- bill codec ---

func encodeParticipant(p domain.Participant) fsValue {
	return fsValue{MapValue: &fsMap{Fields: map[string]fsValue{
		"id":     strVal(p.ID),
		"name":   strVal(p.Name),
		"status": strVal(p.Status),
	}}}
}

func decodeParticipant(v fsValue) domain.Participant {
	if v.MapValue == nil {
		return domain.Participant{}
	}
	f := v.MapValue.Fields
	return domain.Participant{
		ID:     getString(f, "id"),
		Name:   getString(f, "name"),
		Status: getString(f, "status"),
	}
}

func encodeBill(b *domain.Bill) map[string]fsValue {
	participants := make([]fsValue, 0, len(b.Participants))
	for _, p := range b.Participants {
		participants = append(participants, encodeParticipant(p))
	}

	splits := make([]fsValue, 0, len(b.SplitResults))
	for _, sr := range b.SplitResults {
		splits = append(splits, fsValue{MapValue: &fsMap{Fields: map[string]fsValue{
			"amount":      numVal(sr.Amount),
			"participant": encodeParticipant(sr.Participant),
		}}})
	}

	fields := map[string]fsValue{
		"user_id":       strVal(b.UserID),
		"title":         strVal(b.Title),
		"total_amount":  numVal(b.TotalAmount),
		"category":      strVal(b.Category),
		"status":        strVal(b.Status),
		"created_at":    tsVal(b.CreatedAt),
		"participants":  {ArrayValue: &fsArray{Values: participants}},
		"split_results": {ArrayValue: &fsArray{Values: splits}},
	}
	if !b.Date.IsZero() {
		fields["date"] = tsVal(b.Date)
	}
	return fields
}

func decodeBill(doc fsDocument) *domain.Bill {
	f := doc.Fields

	var participants []domain.Participant
	for _, v := range getArray(f, "participants") {
		participants = append(participants, decodeParticipant(v))
	}

	var splits []domain.SplitResult
	for _, v := range getArray(f, "split_results") {
		if v.MapValue == nil {
			continue
		}
		sf := v.MapValue.Fields
		splits = append(splits, domain.SplitResult{
			Amount:      getFloat(sf, "amount"),
			Participant: decodeParticipant(sf["participant"]),
		})
	}

	return &domain.Bill{
		ID:           docID(doc.Name),
		UserID:       getString(f, "user_id"),
		Title:        getString(f, "title"),
		Date:         getTime(f, "date"),
		CreatedAt:    getTime(f, "created_at"),
		TotalAmount:  getFloat(f, "total_amount"),
		Category:     getString(f, "category"),
		Status:       getString(f, "status"),
		Participants: participants,
		SplitResults: splits,
	}
}

// --- share link codec ---

func encodeShareLink(l *domain.ShareLink) map[string]fsValue {
	return map[string]fsValue{
		"bill_id":    strVal(l.BillID),
		"user_id":    strVal(l.UserID),
		"token_id":   strVal(l.TokenID),
		"pin_hash":   strVal(l.PINHash),
		"view_count": intVal(l.ViewCount),
		"revoked":    boolVal(l.Revoked),
		"expires_at": tsVal(l.ExpiresAt),
		"created_at": tsVal(l.CreatedAt),
	}
}

func decodeShareLink(doc fsDocument) *domain.ShareLink {
	f := doc.Fields
	return &domain.ShareLink{
		ID:        docID(doc.Name),
		BillID:    getString(f, "bill_id"),
		UserID:    getString(f, "user_id"),
		TokenID:   getString(f, "token_id"),
		PINHash:   getString(f, "pin_hash"),
		ViewCount: getInt(f, "view_count"),
		Revoked:   getBool(f, "revoked"),
		ExpiresAt: getTime(f, "expires_at"),
		CreatedAt: getTime(f, "created_at"),
	}
}
