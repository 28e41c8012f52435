package testkit

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestSuiteRunner(t *testing.T) {
	// 1. Setup sample master config
	masterConfig := []ConfigEntry{
		{
			ServiceName:       "StoreLookup",
			FilePath:          "store_api",
			ScenariosFileName: "lookup_scenario.json",
			ServiceURL:        "/api/stores/lookup",
			HTTPMethodType:    "POST",
			WorkflowService:   "HandleLookup",
		},
	}

	scenarios := []Scenario{
		{
			Name:             "LookupBySlug",
			Description:      "Resolves a store by its slug",
			RequestMethod:    "POST",
			RequestURL:       "/api/stores/lookup",
			ExpectedCode:     200,
			RequestFileName:  "req.json",
			ResponseFileName: "res.json",
		},
	}

	// 2. Write temp files
	dir := t.TempDir()
	masterPath := filepath.Join(dir, "test_scenarios.json")

	masterData, _ := json.Marshal(masterConfig)
	_ = os.WriteFile(masterPath, masterData, 0644)

	apiDir := filepath.Join(dir, "store_api")
	_ = os.MkdirAll(apiDir, 0755)

	scenarioData, _ := json.Marshal(scenarios)
	_ = os.WriteFile(filepath.Join(apiDir, "lookup_scenario.json"), scenarioData, 0644)

	reqData := []byte(`{"slug": "acme-shop"}`)
	resData := []byte(`{"slug": "acme-shop", "name": "Acme Shop"}`)
	_ = os.WriteFile(filepath.Join(apiDir, "req.json"), reqData, 0644)
	_ = os.WriteFile(filepath.Join(apiDir, "res.json"), resData, 0644)

	// 3. Create mock handler
	handlers := map[string]http.HandlerFunc{
		"HandleLookup": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"slug": "acme-shop", "name": "Acme Shop"}`))
		},
	}

	// 4. Run suite
	// Errors inside RunSuite trigger t.Fatal, so a clean run is a success.
	RunSuite(t, masterPath, handlers)
}
