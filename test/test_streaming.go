package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

const defaultBaseURL = "http://localhost:8080"

type IntroResponse struct {
	Intro string `json:"intro"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func main() {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	conversationType := "companion"
	if len(os.Args) > 1 {
		conversationType = os.Args[1]
	}

	fmt.Printf("🚀 Smoke testing %s as %q\n", baseURL, conversationType)

	intro, err := getIntro(baseURL, conversationType)
	if err != nil {
		log.Fatalf("Failed to get introduction: %v", err)
	}
	fmt.Printf("✅ Introduction: %s\n", intro)

	err = streamChat(baseURL, conversationType, intro)
	if err != nil {
		log.Fatalf("Failed to stream chat: %v", err)
	}

	fmt.Println("✅ Streaming test completed successfully!")
}

func post(url string, payload any, timeout time.Duration) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := os.Getenv("ACCESS_TOKEN"); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		var e ErrorResponse
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return nil, fmt.Errorf("status %d: %s (%s)", resp.StatusCode, e.Error, e.Details)
		}
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}
	return resp, nil
}

func getIntro(baseURL, conversationType string) (string, error) {
	resp, err := post(baseURL+"/conversation/intro", map[string]string{
		"conversationType": conversationType,
	}, 30*time.Second)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out IntroResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %v", err)
	}
	return out.Intro, nil
}

func streamChat(baseURL, conversationType, intro string) error {
	payload := map[string]any{
		"conversationType": conversationType,
		"messages": []map[string]string{
			{"role": "assistant", "content": intro},
			{"role": "user", "content": "Give me one idea for a relaxing weekend."},
		},
	}

	startTime := time.Now()
	resp, err := post(baseURL+"/conversation/stream", payload, 60*time.Second)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	fmt.Println("📤 Streaming reply:")
	buf := make([]byte, 512)
	chunks := 0
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			chunks++
			fmt.Print(string(buf[:n]))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read stream: %v", err)
		}
	}
	fmt.Printf("\n⏱️  %d chunks in %v\n", chunks, time.Since(startTime))
	return nil
}
