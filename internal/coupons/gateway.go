// Package coupons fetches member coupons from the remote coupon service and keeps the
// session's coupon list.
package coupons

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/imrishuroy/go-cart-ledger/internal/pricing"
)

// CouponPath is the coupon record endpoint relative to the API base URL.
const CouponPath = "/admin/coupon/getCouponRecord.php"

// DefaultTimeout bounds a single coupon fetch.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// Gateway fetches the coupons valid for a member.
type Gateway interface {
	FetchCoupons(ctx context.Context, memberID string) ([]pricing.Coupon, error)
}

// TransportError reports a failed coupon fetch: network failure, non-2xx status or an
// undecodable body.
type TransportError struct {
	MemberID   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch coupons for member %s: status %d: %v", e.MemberID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch coupons for member %s: %v", e.MemberID, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPGateway calls the coupon endpoint over HTTP.
type HTTPGateway struct {
	baseURL string
	client  *http.Client
}

// NewHTTPGateway returns a gateway rooted at baseURL. A zero timeout uses DefaultTimeout.
func NewHTTPGateway(baseURL string, timeout time.Duration) *HTTPGateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// FetchCoupons issues GET {base}/admin/coupon/getCouponRecord.php?member_no={memberID}.
func (g *HTTPGateway) FetchCoupons(ctx context.Context, memberID string) ([]pricing.Coupon, error) {
	u := g.baseURL + CouponPath + "?" + url.Values{"member_no": {memberID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &TransportError{MemberID: memberID, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &TransportError{MemberID: memberID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, &TransportError{MemberID: memberID, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{MemberID: memberID, StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	list, err := decodeCoupons(body)
	if err != nil {
		return nil, &TransportError{MemberID: memberID, StatusCode: resp.StatusCode, Err: err}
	}
	return list, nil
}

// wireCoupon is one coupon as served by the coupon endpoint. Codes and values may arrive as
// JSON numbers or strings.
type wireCoupon struct {
	CouponNo    json.RawMessage `json:"coupon_no"`
	CouponValue json.RawMessage `json:"coupon_value"`
}

// decodeCoupons accepts a bare JSON array or a {"data": [...]} envelope.
func decodeCoupons(body []byte) ([]pricing.Coupon, error) {
	body = bytes.TrimSpace(body)
	var wire []wireCoupon
	if len(body) > 0 && body[0] == '{' {
		var env struct {
			Data []wireCoupon `json:"data"`
		}
		if err := json.Unmarshal(body, &env); err != nil {
			return nil, fmt.Errorf("decode coupons: %w", err)
		}
		wire = env.Data
	} else if err := json.Unmarshal(body, &wire); err != nil {
		return nil, fmt.Errorf("decode coupons: %w", err)
	}

	out := make([]pricing.Coupon, 0, len(wire))
	for i, w := range wire {
		value, err := rawNumber(w.CouponValue)
		if err != nil {
			return nil, fmt.Errorf("decode coupon %d value: %w", i, err)
		}
		out = append(out, pricing.Coupon{Code: rawString(w.CouponNo), Value: value})
	}
	return out, nil
}

// rawString renders a JSON string or number as its string form.
func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

func rawNumber(raw json.RawMessage) (float64, error) {
	s := rawString(raw)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}
