package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func withNominatim(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)

	origURL := nominatimURL
	nominatimURL = server.URL
	t.Cleanup(func() { nominatimURL = origURL })
}

func TestReverse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"city", `{"address":{"city":"Jakarta","county":"Jakarta Pusat"}}`, "Jakarta"},
		{"town", `{"address":{"town":"Bogor","village":"Tegallega"}}`, "Bogor"},
		{"village", `{"address":{"village":"Tegallega","county":"Bogor"}}`, "Tegallega"},
		{"county", `{"address":{"county":"Sleman"}}`, "Sleman"},
		{"nothing", `{"address":{}}`, DefaultPlaceName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withNominatim(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Query().Get("format") != "json" {
					t.Errorf("format = %q, want json", r.URL.Query().Get("format"))
				}
				if r.Header.Get("User-Agent") == "" {
					t.Error("User-Agent header missing")
				}
				w.Write([]byte(tt.body))
			})

			got, err := Reverse(context.Background(), -6.2, 106.8)
			if err != nil {
				t.Fatalf("Reverse() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Reverse() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReverse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"status", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusTooManyRequests) }},
		{"json", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<html>")) }},
		{"api error", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"error":"Unable to geocode"}`)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withNominatim(t, tt.handler)
			if _, err := Reverse(context.Background(), 1, 2); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

func TestDisplayName(t *testing.T) {
	withNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	if got := DisplayName(context.Background(), -6.2088, 106.8456); got != "-6.21, 106.85" {
		t.Errorf("DisplayName() = %q, want coordinates", got)
	}

	withNominatim(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{"city":"Surabaya"}}`))
	})
	if got := DisplayName(context.Background(), -7.25, 112.75); got != "Surabaya" {
		t.Errorf("DisplayName() = %q, want Surabaya", got)
	}
}
