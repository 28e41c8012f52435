// Package main walks the Tradeyard API end to end with the fluent HTTP
// client: it registers an account, opens a store, reads the public
// storefront and runs a GraphQL catalogue query.
//
// Start the API first, then run the walkthrough:
//
//	go run ./cmd/server    # terminal 1
//	go run ./example       # terminal 2
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	httpclient "github.com/tradeyard/tradeyard/pkg/http"
)

// envelope mirrors the API's response wrapper.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func main() {
	base := os.Getenv("TRADEYARD_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	if err := run(base); err != nil {
		fmt.Fprintln(os.Stderr, "walkthrough failed:", err)
		os.Exit(1)
	}
}

func run(base string) error {
	// 1. The health endpoint answers without auth.
	resp, err := httpclient.Get(base + "/health").Timeout(3 * time.Second).Send()
	if err != nil {
		return fmt.Errorf("is the server running at %s? %w", base, err)
	}
	if err := resp.Throw(); err != nil {
		return err
	}
	fmt.Println("health:", resp.Text())

	// 2. Register an account. The suffix keeps re-runs from colliding with
	// the unique email constraint.
	email := fmt.Sprintf("walkthrough+%d@tradeyard.test", time.Now().UnixNano())
	resp, err = httpclient.Post(base + "/api/auth/register").
		Body(map[string]string{"name": "Walkthrough", "email": email, "password": "secret-pw-1"}).
		Send()
	if err != nil {
		return err
	}
	if err := resp.Throw(); err != nil {
		return err
	}

	var registered struct {
		Tokens struct {
			AccessToken string `json:"accessToken"`
		} `json:"tokens"`
		User struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	if err := decode(resp, &registered); err != nil {
		return err
	}
	token := registered.Tokens.AccessToken
	fmt.Printf("registered %s as %s\n", email, registered.User.Role)

	// 3. Open a store. The caller becomes its owner and store_admin.
	resp, err = httpclient.Post(base+"/api/stores").
		Bearer(token).
		Body(map[string]string{
			"name":        fmt.Sprintf("Walkthrough Goods %d", time.Now().Unix()%10000),
			"description": "Opened by the example walkthrough.",
		}).
		Send()
	if err != nil {
		return err
	}
	if err := resp.Throw(); err != nil {
		return err
	}
	var store struct {
		ID   string `json:"id"`
		Slug string `json:"slug"`
	}
	if err := decode(resp, &store); err != nil {
		return err
	}
	fmt.Printf("store created: id=%s slug=%s\n", store.ID, store.Slug)

	// 4. The owner listing shows it.
	resp, err = httpclient.Get(base + "/api/me/stores").Bearer(token).Send()
	if err != nil {
		return err
	}
	if err := resp.Throw(); err != nil {
		return err
	}
	var mine []struct {
		Name string `json:"name"`
	}
	if err := decode(resp, &mine); err != nil {
		return err
	}
	fmt.Printf("owned stores: %d\n", len(mine))

	// 5. So does the public storefront, unauthenticated.
	resp, err = httpclient.Get(base + "/api/stores").Send()
	if err != nil {
		return err
	}
	if err := resp.Throw(); err != nil {
		return err
	}
	var page struct {
		TotalItems int64 `json:"totalItems"`
	}
	if err := decode(resp, &page); err != nil {
		return err
	}
	fmt.Printf("public stores: %d\n", page.TotalItems)

	// 6. And the GraphQL catalogue serves the same reads.
	resp, err = httpclient.Post(base + "/graphql").
		Body(map[string]string{"query": `{ store(slug: "` + store.Slug + `") { name isActive } }`}).
		Send()
	if err != nil {
		return err
	}
	if err := resp.Throw(); err != nil {
		return err
	}
	fmt.Println("graphql:", resp.Text())

	return nil
}

// decode unwraps the response envelope and unmarshals its data payload.
func decode(resp *httpclient.Response, dest interface{}) error {
	var env envelope
	if err := resp.JSON(&env); err != nil {
		return err
	}
	if err := json.Unmarshal(env.Data, dest); err != nil {
		return fmt.Errorf("decode %q payload: %w", env.Message, err)
	}
	return nil
}
