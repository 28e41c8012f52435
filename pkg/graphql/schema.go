// Package graphql wraps graphql-go with the two pieces every schema here
// needs: schema construction from a root query and an HTTP transport.
// Schema contents (types, resolvers) stay with the application.
package graphql

import (
	"encoding/json"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/tradeyard/tradeyard/pkg/response"
)

// NewSchema creates a query-only GraphQL schema from a root query object.
func NewSchema(query *graphql.Object) (graphql.Schema, error) {
	return graphql.NewSchema(graphql.SchemaConfig{
		Query: query,
	})
}

// Handler serves the schema over HTTP. POST carries the standard
// {query, operationName, variables} body; GET accepts ?query= for
// exploratory reads.
func Handler(schema graphql.Schema) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var params struct {
			Query         string                 `json:"query"`
			OperationName string                 `json:"operationName"`
			Variables     map[string]interface{} `json:"variables"`
		}

		switch r.Method {
		case http.MethodGet:
			params.Query = r.URL.Query().Get("query")
		case http.MethodPost:
			if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
				response.Error(w, http.StatusBadRequest, "invalid graphql request body")
				return
			}
		default:
			response.Error(w, http.StatusMethodNotAllowed, "use GET or POST")
			return
		}
		if params.Query == "" {
			response.Error(w, http.StatusBadRequest, "missing graphql query")
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  params.Query,
			OperationName:  params.OperationName,
			VariableValues: params.Variables,
			Context:        r.Context(),
		})

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result) //nolint:errcheck
	}
}
