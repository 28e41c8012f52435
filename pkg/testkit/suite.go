// Package testkit — suite.go
//
// Suite orchestration for data-driven REST API testing.

package testkit

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tradeyard/tradeyard/pkg/router"
)

// ConfigEntry represents a single REST API group in the master test_scenarios.json.
type ConfigEntry struct {
	ServiceName       string `json:"serviceName"`
	FilePath          string `json:"filePath"`
	ScenariosFileName string `json:"scenariosFileName"`
	ServiceURL        string `json:"serviceUrl"`
	HTTPMethodType    string `json:"httpMethodType"`  // e.g. "GET", "POST"
	WorkflowService   string `json:"workflowService"` // The map key to look up the http.HandlerFunc
}

// RunSuite executes a suite of scenarios driven by a master JSON config file.
// masterConfigPath: Path to test_scenarios.json
// handlers: A map where keys correspond to ConfigEntry.WorkflowService and values are the handlers being tested.
func RunSuite(t *testing.T, masterConfigPath string, handlers map[string]http.HandlerFunc) {
	t.Helper()

	absMasterPath, err := filepath.Abs(masterConfigPath)
	if err != nil {
		t.Fatalf("testkit: resolve master config path %q: %v", masterConfigPath, err)
	}

	data, err := os.ReadFile(absMasterPath)
	if err != nil {
		t.Fatalf("testkit: read master config %q: %v", absMasterPath, err)
	}

	var entries []ConfigEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("testkit: parse master config %q: %v", absMasterPath, err)
	}

	baseDir := filepath.Dir(absMasterPath)

	for _, entry := range entries {
		t.Run(entry.ServiceName, func(t *testing.T) {
			handlerFunc, ok := handlers[entry.WorkflowService]
			if !ok {
				t.Fatalf("testkit: handler %q not found in provided map", entry.WorkflowService)
			}

			// Mount the handler onto a fresh router per service entry so
			// scenarios stay isolated from one another.
			r := router.New()
			url := entry.ServiceURL
			if url != "" && url[0] != '/' {
				url = "/" + url
			}
			switch strings.ToUpper(entry.HTTPMethodType) {
			case "GET":
				r.Get(url, entry.WorkflowService, handlerFunc)
			case "POST":
				r.Post(url, entry.WorkflowService, handlerFunc)
			case "PUT":
				r.Put(url, entry.WorkflowService, handlerFunc)
			case "PATCH":
				r.Patch(url, entry.WorkflowService, handlerFunc)
			case "DELETE":
				r.Delete(url, entry.WorkflowService, handlerFunc)
			default:
				r.Get(url, entry.WorkflowService, handlerFunc) // fallback
			}

			scenarioPath := filepath.Join(baseDir, entry.FilePath, entry.ScenariosFileName)

			// FilePath is normally relative to the master config; fall back
			// to treating it as relative to the test runner's cwd.
			if _, err := os.Stat(scenarioPath); os.IsNotExist(err) {
				scenarioPath = filepath.Join(entry.FilePath, entry.ScenariosFileName)
			}

			scenarios, err := LoadScenarioArray(scenarioPath)
			if err != nil {
				t.Fatalf("testkit: load scenario array %q: %v", scenarioPath, err)
			}

			for _, s := range scenarios {
				// Entry-level routing data fills in whatever the scenario omits.
				if s.RequestURL == "" {
					s.RequestURL = url
				}
				if s.RequestMethod == "" {
					s.RequestMethod = entry.HTTPMethodType
				}

				t.Run(s.Name, func(t *testing.T) {
					runScenario(t, r.Handler(), s)
				})
			}
		})
	}
}
