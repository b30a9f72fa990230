// Package openfoodfacts looks up barcode nutrition data against the Open
// Food Facts API. Several API generations are still live and products are
// unevenly indexed across them, so the lookup walks the endpoints from
// newest to oldest and takes the first hit.
package openfoodfacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// ErrProductNotFound is returned when no endpoint knows the barcode.
var ErrProductNotFound = errors.New("product not found")

// fallbackName is used when a product carries no usable name.
const fallbackName = "Prodotto"

// kJ to kcal
const kcalPerKJ = 4.184

// Product is the nutrition data resolved for one barcode, normalized to
// per-100g values.
type Product struct {
	Name         string
	KcalPer100   float64
	ProPer100    float64
	CarbPer100   float64
	FatPer100    float64
	GramsPerUnit *float64
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Lookup resolves a barcode. Tries the v2 product endpoint, then v0, then
// the v2 search endpoint, then the legacy cgi search.
func (c *Client) Lookup(ctx context.Context, code string) (*Product, error) {
	steps := []func(context.Context, string) (*Product, error){
		c.lookupProductV2,
		c.lookupProductV0,
		c.lookupSearchV2,
		c.lookupSearchLegacy,
	}

	var lastErr error
	for _, step := range steps {
		product, err := step(ctx, code)
		if err == nil {
			return product, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ErrProductNotFound
	}
	return nil, lastErr
}

type offProduct struct {
	ProductName     string          `json:"product_name"`
	Brands          string          `json:"brands"`
	GenericName     string          `json:"generic_name"`
	ServingQuantity json.RawMessage `json:"serving_quantity"`
	Nutriments      map[string]any  `json:"nutriments"`
}

type productEnvelope struct {
	Status  int         `json:"status"`
	Product *offProduct `json:"product"`
}

type searchEnvelope struct {
	Products []offProduct `json:"products"`
	Count    int          `json:"count"`
}

func (c *Client) lookupProductV2(ctx context.Context, code string) (*Product, error) {
	var env productEnvelope
	if err := c.getJSON(ctx, "/api/v2/product/"+url.PathEscape(code)+".json", &env); err != nil {
		return nil, err
	}
	if env.Status != 1 || env.Product == nil {
		return nil, ErrProductNotFound
	}
	return toProduct(env.Product), nil
}

func (c *Client) lookupProductV0(ctx context.Context, code string) (*Product, error) {
	var env productEnvelope
	if err := c.getJSON(ctx, "/api/v0/product/"+url.PathEscape(code)+".json", &env); err != nil {
		return nil, err
	}
	if env.Status != 1 || env.Product == nil {
		return nil, ErrProductNotFound
	}
	return toProduct(env.Product), nil
}

func (c *Client) lookupSearchV2(ctx context.Context, code string) (*Product, error) {
	path := "/api/v2/search?code=" + url.QueryEscape(code) + "&fields=product_name,brands,generic_name,serving_quantity,nutriments"
	var env searchEnvelope
	if err := c.getJSON(ctx, path, &env); err != nil {
		return nil, err
	}
	if len(env.Products) == 0 {
		return nil, ErrProductNotFound
	}
	return toProduct(&env.Products[0]), nil
}

func (c *Client) lookupSearchLegacy(ctx context.Context, code string) (*Product, error) {
	path := "/cgi/search.pl?search_terms=" + url.QueryEscape(code) + "&search_simple=1&action=process&json=1"
	var env searchEnvelope
	if err := c.getJSON(ctx, path, &env); err != nil {
		return nil, err
	}
	if len(env.Products) == 0 {
		return nil, ErrProductNotFound
	}
	return toProduct(&env.Products[0]), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openfoodfacts: unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func toProduct(p *offProduct) *Product {
	product := &Product{
		Name:       productName(p),
		ProPer100:  numField(p.Nutriments, "proteins_100g"),
		CarbPer100: numField(p.Nutriments, "carbohydrates_100g"),
		FatPer100:  numField(p.Nutriments, "fat_100g"),
	}

	// energy-kcal when present, otherwise convert the kJ energy field
	if kcal := numField(p.Nutriments, "energy-kcal_100g"); kcal > 0 {
		product.KcalPer100 = kcal
	} else if kj := numField(p.Nutriments, "energy_100g"); kj > 0 {
		product.KcalPer100 = kj / kcalPerKJ
	}

	if grams := rawNumber(p.ServingQuantity); grams > 0 {
		product.GramsPerUnit = &grams
	}

	return product
}

func productName(p *offProduct) string {
	for _, name := range []string{p.ProductName, p.Brands, p.GenericName} {
		if name != "" {
			return name
		}
	}
	return fallbackName
}

// numField reads a nutriment that the API serves either as a number or a
// numeric string.
func numField(nutriments map[string]any, key string) float64 {
	switch v := nutriments[key].(type) {
	case float64:
		return v
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func rawNumber(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		f, err := strconv.ParseFloat(s, 64)
		if err == nil {
			return f
		}
	}
	return 0
}
