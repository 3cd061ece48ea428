package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIServer string
	Email     string
	Password  string
}

var config Config

var client = &http.Client{Timeout: 10 * time.Second}

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Failed to load .env: %v", err)
	}
	config = Config{
		APIServer: os.Getenv("API_SERVER"),
		Email:     os.Getenv("CLIENT_EMAIL"),
		Password:  os.Getenv("CLIENT_PASSWORD"),
	}
	if config.APIServer == "" {
		config.APIServer = "http://localhost:8080"
	}
}

func main() {
	if config.Email == "" || config.Password == "" {
		log.Fatal("CLIENT_EMAIL and CLIENT_PASSWORD must be set")
	}

	token, err := login()
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}

	var me struct {
		Email       string   `json:"email"`
		Role        string   `json:"role"`
		Permissions []string `json:"permissions"`
	}
	if err := call(http.MethodGet, "/v1/me", token, nil, &me); err != nil {
		log.Fatalf("Fetching profile failed: %v", err)
	}

	var hierarchy struct {
		Roles []string `json:"roles"`
	}
	if err := call(http.MethodGet, "/v1/roles/hierarchy", token, nil, &hierarchy); err != nil {
		log.Fatalf("Fetching hierarchy failed: %v", err)
	}

	fmt.Printf("User:        %s\n", me.Email)
	fmt.Printf("Role:        %s\n", me.Role)
	fmt.Printf("Permissions: %s\n", strings.Join(me.Permissions, ", "))
	fmt.Printf("Hierarchy:   %s\n", strings.Join(hierarchy.Roles, " > "))

	if err := call(http.MethodPost, "/v1/logout", token, nil, nil); err != nil {
		log.Printf("Logout failed: %v", err)
	}
}

func login() (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	body := map[string]string{"email": config.Email, "password": config.Password}
	if err := call(http.MethodPost, "/v1/login", "", body, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func call(method, path, token string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, config.APIServer+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return fmt.Errorf("%s %s: %d %s", method, path, resp.StatusCode, apiErr.Error)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
