// Package bind decodes and validates an HTTP request body into a struct.
//
// JSON handles application/json bodies. Form handles urlencoded and
// multipart bodies, mapping form fields onto struct fields by json tag;
// pointer fields stay nil when the field is absent, which is how partial
// updates distinguish "not supplied" from "set to zero".
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/tradeyard/tradeyard/config"
	"github.com/tradeyard/tradeyard/pkg/validate"
)

// maxBodyBytes returns the configured request body size limit (default 4 MB).
func maxBodyBytes() int64 {
	n, err := strconv.ParseInt(config.Get("MAX_BODY_BYTES", "4194304"), 10, 64)
	if err != nil || n <= 0 {
		return 4 << 20 // 4 MB
	}
	return n
}

// maxUploadBytes caps multipart bodies, which carry image uploads and are
// allowed to be far larger than JSON bodies (default 32 MB).
func maxUploadBytes() int64 {
	n, err := strconv.ParseInt(config.Get("MAX_UPLOAD_BYTES", "33554432"), 10, 64)
	if err != nil || n <= 0 {
		return 32 << 20
	}
	return n
}

// JSON decodes r.Body as JSON into dest and runs validation.
// The body is capped at MAX_BODY_BYTES (default 4 MB) to prevent memory exhaustion.
// Returns (errs, nil) when there are validation failures.
// Returns (nil, err) when the body is malformed JSON or too large.
func JSON(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes())

	dec := json.NewDecoder(r.Body)
	if err = dec.Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
		}
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}

	return nil, nil
}

// Form decodes urlencoded or multipart form fields into dest and runs
// validation. Field mapping rules:
//
//   - scalars (string, bool, int, uint, float) parse the first form value
//   - pointer scalars stay nil when the field is absent
//   - []string takes all repeated values, or a single JSON array value
//   - struct and non-string slice fields expect a JSON-encoded value
//     (the convention for complex payloads like colors or settings)
//
// File parts are not consumed here; read them via r.MultipartForm after
// binding.
func Form(r *http.Request, dest interface{}) (errs map[string]string, err error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err = r.ParseMultipartForm(maxUploadBytes()); err != nil {
			return nil, fmt.Errorf("invalid multipart body: %w", err)
		}
	} else {
		if err = r.ParseForm(); err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
	}

	if err = bindFormValues(r.Form, dest); err != nil {
		return nil, err
	}

	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}

	return nil, nil
}

func bindFormValues(form map[string][]string, dest interface{}) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errors.New("bind: dest must be a pointer to struct")
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name := jsonName(field)
		vals, ok := form[name]
		if !ok || len(vals) == 0 {
			continue
		}

		if err := setField(rv.Field(i), vals); err != nil {
			return fmt.Errorf("bind: field %s: %w", name, err)
		}
	}

	return nil
}

func setField(v reflect.Value, vals []string) error {
	raw := vals[0]

	switch v.Kind() {
	case reflect.Ptr:
		elem := reflect.New(v.Type().Elem())
		if err := setField(elem.Elem(), vals); err != nil {
			return err
		}
		v.Set(elem)
		return nil

	case reflect.String:
		v.SetString(raw)
		return nil

	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("not a boolean: %q", raw)
		}
		v.SetBool(b)
		return nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("not an integer: %q", raw)
		}
		v.SetInt(n)
		return nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("not an unsigned integer: %q", raw)
		}
		v.SetUint(n)
		return nil

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", raw)
		}
		v.SetFloat(f)
		return nil

	case reflect.Slice:
		if v.Type().Elem().Kind() == reflect.String {
			// Repeated form values, or one JSON array value.
			if len(vals) == 1 && strings.HasPrefix(strings.TrimSpace(raw), "[") {
				return json.Unmarshal([]byte(raw), v.Addr().Interface())
			}
			v.Set(reflect.ValueOf(append([]string(nil), vals...)))
			return nil
		}
		return json.Unmarshal([]byte(raw), v.Addr().Interface())

	case reflect.Struct, reflect.Map:
		return json.Unmarshal([]byte(raw), v.Addr().Interface())
	}

	return fmt.Errorf("unsupported field kind %s", v.Kind())
}

func jsonName(f reflect.StructField) string {
	name := f.Tag.Get("json")
	if name == "" || name == "-" {
		return strings.ToLower(f.Name)
	}
	if idx := strings.Index(name, ","); idx != -1 {
		name = name[:idx]
	}
	return name
}
