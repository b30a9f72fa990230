package openfoodfacts

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLookupProductV2(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/product/123.json" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": 1,
			"product": {
				"product_name": "Pasta di semola",
				"serving_quantity": "80",
				"nutriments": {
					"energy-kcal_100g": 356,
					"proteins_100g": 12.5,
					"carbohydrates_100g": 72.2,
					"fat_100g": 1.5
				}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	product, err := client.Lookup(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if product.Name != "Pasta di semola" {
		t.Errorf("unexpected name: %s", product.Name)
	}
	if product.KcalPer100 != 356 || product.ProPer100 != 12.5 || product.CarbPer100 != 72.2 || product.FatPer100 != 1.5 {
		t.Errorf("unexpected macros: %+v", product)
	}
	if product.GramsPerUnit == nil || *product.GramsPerUnit != 80 {
		t.Errorf("unexpected grams per unit: %v", product.GramsPerUnit)
	}
}

func TestLookupFallsBackToV0(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/product/456.json":
			http.NotFound(w, r)
		case "/api/v0/product/456.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"status": 1,
				"product": {
					"brands": "Biscotti",
					"nutriments": {"energy_100g": 2000, "proteins_100g": 7, "carbohydrates_100g": 60, "fat_100g": 20}
				}
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	product, err := client.Lookup(context.Background(), "456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if product.Name != "Biscotti" {
		t.Errorf("unexpected name: %s", product.Name)
	}
	// kJ converted to kcal
	if math.Abs(product.KcalPer100-2000/4.184) > 0.01 {
		t.Errorf("expected kJ conversion, got %f", product.KcalPer100)
	}
}

func TestLookupFallsBackToSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v2/search":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"count": 1,
				"products": [{"generic_name": "Yogurt bianco", "nutriments": {"energy-kcal_100g": 60, "proteins_100g": 4, "carbohydrates_100g": 5, "fat_100g": 3}}]
			}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	product, err := client.Lookup(context.Background(), "789")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product.Name != "Yogurt bianco" {
		t.Errorf("unexpected name: %s", product.Name)
	}
}

func TestLookupNamelessProductGetsFallbackName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/product/321.json" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"status": 1, "product": {"nutriments": {"energy-kcal_100g": 100}}}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	product, err := client.Lookup(context.Background(), "321")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if product.Name != "Prodotto" {
		t.Errorf("expected fallback name, got %s", product.Name)
	}
}

func TestLookupUnknownBarcode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v2/search" || r.URL.Path == "/cgi/search.pl" {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"count": 0, "products": []}`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := NewClient(server.URL, 2*time.Second)
	_, err := client.Lookup(context.Background(), "000")
	if !errors.Is(err, ErrProductNotFound) {
		t.Errorf("expected ErrProductNotFound, got %v", err)
	}
}
