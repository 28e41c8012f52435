// Package controllers holds the HTTP handlers. Each controller is a thin
// shell around one service: bind, call, shape the response. Identity and
// tenant context arrive through the middleware chain.
package controllers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/tradeyard/tradeyard/pkg/ctx"
	"github.com/tradeyard/tradeyard/pkg/validate"
)

// bindPayload decodes the request input either from a JSON body or, for
// multipart uploads, from the form's "payload" JSON field, then validates
// it. Responds on failure, mirroring BindJSON.
func bindPayload(c *ctx.Context, dest any) bool {
	if strings.HasPrefix(c.R.Header.Get("Content-Type"), "application/json") {
		return c.BindJSON(dest)
	}
	raw := c.PostForm("payload")
	if raw == "" {
		c.Error(http.StatusBadRequest, "missing payload field")
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		c.Error(http.StatusBadRequest, "payload is not valid JSON")
		return false
	}
	if errMap := c.Validate(dest); validate.HasErrors(errMap) {
		c.ValidationError(errMap)
		return false
	}
	return true
}
