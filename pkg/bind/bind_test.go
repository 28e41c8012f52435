package bind_test

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/tradeyard/tradeyard/pkg/bind"
)

type createProductForm struct {
	Name       string   `json:"name" validate:"required"`
	Price      *float64 `json:"price"`
	Featured   bool     `json:"featured"`
	Categories []string `json:"categories"`
	Colors     []struct {
		Name  string `json:"name"`
		Image string `json:"image"`
	} `json:"colors"`
}

func TestJSONValid(t *testing.T) {
	body := `{"name":"Trail Runner","price":79.99}`
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	var in createProductForm
	errs, err := bind.JSON(req, &in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if in.Name != "Trail Runner" || in.Price == nil || *in.Price != 79.99 {
		t.Errorf("bad bind: %+v", in)
	}
}

func TestJSONMalformed(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")

	var in createProductForm
	if _, err := bind.JSON(req, &in); err == nil {
		t.Error("expected malformed JSON to error")
	}
}

func TestFormURLEncoded(t *testing.T) {
	form := url.Values{}
	form.Set("name", "Trail Runner")
	form.Set("price", "49.50")
	form.Set("featured", "true")
	form.Add("categories", "cat-1")
	form.Add("categories", "cat-2")

	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var in createProductForm
	errs, err := bind.Form(req, &in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if in.Price == nil || *in.Price != 49.50 {
		t.Errorf("expected price pointer set, got %+v", in.Price)
	}
	if !in.Featured {
		t.Error("expected featured true")
	}
	if len(in.Categories) != 2 {
		t.Errorf("expected 2 categories, got %v", in.Categories)
	}
}

func TestFormAbsentPointerStaysNil(t *testing.T) {
	form := url.Values{}
	form.Set("name", "No Price")

	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var in createProductForm
	if _, err := bind.Form(req, &in); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Price != nil {
		t.Errorf("expected absent price to stay nil, got %v", *in.Price)
	}
}

func TestFormMultipartWithJSONFields(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name", "Canvas Tote")
	_ = mw.WriteField("categories", `["cat-1","cat-2"]`)
	_ = mw.WriteField("colors", `[{"name":"red","image":"red.png"}]`)
	fw, _ := mw.CreateFormFile("images", "tote.png")
	_, _ = fw.Write([]byte("fake-png-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest("POST", "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var in createProductForm
	errs, err := bind.Form(req, &in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(errs) != 0 {
		t.Fatalf("unexpected validation errors: %v", errs)
	}
	if len(in.Categories) != 2 {
		t.Errorf("expected JSON array field decoded, got %v", in.Categories)
	}
	if len(in.Colors) != 1 || in.Colors[0].Name != "red" {
		t.Errorf("expected colors payload decoded, got %+v", in.Colors)
	}
	if req.MultipartForm == nil || len(req.MultipartForm.File["images"]) != 1 {
		t.Error("expected file part to stay readable after binding")
	}
}

func TestFormValidationFailure(t *testing.T) {
	form := url.Values{}
	form.Set("price", "10")

	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var in createProductForm
	errs, err := bind.Form(req, &in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := errs["name"]; !ok {
		t.Errorf("expected name required error, got %v", errs)
	}
}
