package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"orderdesk/internal"
	"orderdesk/internal/catalog"
	"orderdesk/internal/config"
)

// Client talks to a PostgREST endpoint (Supabase or self-hosted) holding
// the items_new, customers, app_users and orders tables. Requests are not
// retried; a failed write surfaces to the caller.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *RateLimiter
}

func NewClient(cfg config.Config) (*Client, error) {
	if err := cfg.Require("REST_BASE_URL", cfg.RestBaseURL); err != nil {
		return nil, err
	}
	if err := cfg.Require("REST_API_KEY", cfg.RestAPIKey); err != nil {
		return nil, err
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.RestBaseURL, "/") + "/rest/v1/",
		apiKey:     cfg.RestAPIKey,
		httpClient: &http.Client{Timeout: time.Duration(cfg.RestTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.RestRateLimitRPS),
	}, nil
}

func (c *Client) Close() error { return nil }

func (c *Client) ListItemRows(ctx context.Context) ([]map[string]any, error) {
	var rows []map[string]any
	if err := c.do(ctx, http.MethodGet, "items_new", url.Values{"select": {"*"}}, nil, "", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) UpsertItems(ctx context.Context, batch []internal.ItemUpsert) error {
	body := make([]map[string]any, 0, len(batch))
	for _, it := range batch {
		body = append(body, catalog.WideRow(it))
	}
	return c.do(ctx, http.MethodPost, "items_new", url.Values{"on_conflict": {"item_name"}}, body, "resolution=merge-duplicates", nil)
}

func (c *Client) ListCustomers(ctx context.Context) ([]internal.Customer, error) {
	var rows []map[string]any
	if err := c.do(ctx, http.MethodGet, "customers", url.Values{"select": {"*"}}, nil, "", &rows); err != nil {
		return nil, err
	}
	out := make([]internal.Customer, 0, len(rows))
	for _, row := range rows {
		out = append(out, customerFromRow(row))
	}
	return out, nil
}

func (c *Client) InsertCustomer(ctx context.Context, in internal.CustomerUpsert) (internal.Customer, error) {
	var rows []map[string]any
	if err := c.do(ctx, http.MethodPost, "customers", nil, []internal.CustomerUpsert{in}, "return=representation", &rows); err != nil {
		return internal.Customer{}, err
	}
	if len(rows) == 0 {
		return internal.Customer{}, errors.New("insert customers: empty representation")
	}
	return customerFromRow(rows[0]), nil
}

func (c *Client) UpsertCustomers(ctx context.Context, batch []internal.CustomerUpsert) error {
	return c.do(ctx, http.MethodPost, "customers", url.Values{"on_conflict": {"name,sales_person_id"}}, batch, "resolution=merge-duplicates", nil)
}

func (c *Client) ListSalesPersons(ctx context.Context) ([]internal.SalesPerson, error) {
	var rows []map[string]any
	if err := c.do(ctx, http.MethodGet, "app_users", url.Values{"select": {"id,first_name,last_name,email,branch_id"}}, nil, "", &rows); err != nil {
		return nil, err
	}
	out := make([]internal.SalesPerson, 0, len(rows))
	for _, row := range rows {
		out = append(out, salesPersonFromRow(row))
	}
	return out, nil
}

func (c *Client) CreateSalesPerson(ctx context.Context, sp internal.SalesPerson) (internal.SalesPerson, error) {
	payload := []map[string]any{{
		"first_name": sp.FirstName,
		"last_name":  sp.LastName,
		"email":      sp.Email,
		"password":   sp.PasswordHash,
		"branch_id":  sp.BranchID,
	}}
	var rows []map[string]any
	if err := c.do(ctx, http.MethodPost, "app_users", nil, payload, "return=representation", &rows); err != nil {
		return internal.SalesPerson{}, err
	}
	if len(rows) == 0 {
		return internal.SalesPerson{}, errors.New("insert app_users: empty representation")
	}
	created := salesPersonFromRow(rows[0])
	created.Ghost = sp.Ghost
	return created, nil
}

func (c *Client) SaveOrder(ctx context.Context, salesPersonID string, order internal.SubmittedOrder) error {
	payload := []map[string]any{{
		"sales_person_id": salesPersonID,
		"branch_id":       order.Header.Branch,
		"customer_name":   order.Header.CustomerName,
		"order_date":      order.Header.OrderDate,
		"order_data": map[string]any{
			"formData": order.Header,
			"items":    order.Lines,
		},
	}}
	return c.do(ctx, http.MethodPost, "orders", nil, payload, "", nil)
}

func (c *Client) do(ctx context.Context, method, table string, query url.Values, body any, prefer string, out any) error {
	u, err := url.Parse(c.baseURL + table)
	if err != nil {
		return err
	}
	u.RawQuery = query.Encode()

	var reader io.Reader
	if body != nil {
		blob, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(blob)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("rest %s %s: status=%d body=%s", method, table, resp.StatusCode, strings.TrimSpace(string(blob)))
	}
	if out == nil || len(bytes.TrimSpace(blob)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(blob))
	dec.UseNumber()
	return dec.Decode(out)
}

// customerFromRow accepts both column layouts seen in customers tables:
// name/contact_no/email and customer_name/mob_no/email_id.
func customerFromRow(row map[string]any) internal.Customer {
	return internal.Customer{
		ID:              toString(row["id"]),
		Name:            firstString(row, "name", "customer_name"),
		Email:           firstString(row, "email", "email_id"),
		ContactNo:       firstString(row, "contact_no", "mob_no"),
		BillingAddress:  toString(row["billing_address"]),
		DeliveryAddress: toString(row["delivery_address"]),
		SalesPersonID:   firstString(row, "sales_person_id", "sales_person_name"),
		Branch:          toString(row["branch"]),
	}
}

func salesPersonFromRow(row map[string]any) internal.SalesPerson {
	return internal.SalesPerson{
		ID:        toString(row["id"]),
		FirstName: toString(row["first_name"]),
		LastName:  toString(row["last_name"]),
		Email:     toString(row["email"]),
		BranchID:  toString(row["branch_id"]),
	}
}

func firstString(row map[string]any, keys ...string) string {
	for _, k := range keys {
		if s := toString(row[k]); s != "" {
			return s
		}
	}
	return ""
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
