package shared

import (
	"net/http/httptest"
	"testing"
)

func TestParsePaginationDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/items", nil)
	p := ParsePagination(r, 20, 100)
	if p.Limit != 20 || p.Offset != 0 {
		t.Fatalf("got %+v", p)
	}
}

func TestParsePaginationClampsLimit(t *testing.T) {
	r := httptest.NewRequest("GET", "/items?limit=500&offset=40", nil)
	p := ParsePagination(r, 20, 100)
	if p.Limit != 100 || p.Offset != 40 {
		t.Fatalf("got %+v", p)
	}
}

func TestParsePaginationPageParameter(t *testing.T) {
	r := httptest.NewRequest("GET", "/items?limit=25&page=3", nil)
	p := ParsePagination(r, 20, 100)
	if p.Limit != 25 || p.Offset != 50 {
		t.Fatalf("got %+v", p)
	}
}

func TestParsePaginationOffsetWinsOverPage(t *testing.T) {
	r := httptest.NewRequest("GET", "/items?offset=10&page=9", nil)
	p := ParsePagination(r, 20, 100)
	if p.Offset != 10 {
		t.Fatalf("got %+v", p)
	}
}

func TestParsePaginationIgnoresGarbage(t *testing.T) {
	r := httptest.NewRequest("GET", "/items?limit=abc&offset=-4&page=zero", nil)
	p := ParsePagination(r, 20, 100)
	if p.Limit != 20 || p.Offset != 0 {
		t.Fatalf("got %+v", p)
	}
}
