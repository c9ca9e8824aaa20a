package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/fatih/color"
)

const baseURL = "http://localhost:3000/api"

// Pretty print JSON helper
func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func sendJSON(method, url, token string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func sendImage(url, token, imagePath string) (*http.Response, []byte, error) {
	img, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", "outfit.jpg")
	if err != nil {
		return nil, nil, err
	}
	part.Write(img)
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, baseURL+url, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func main() {
	token := os.Getenv("SMOKE_TOKEN")
	imagePath := os.Getenv("SMOKE_IMAGE")
	if token == "" || imagePath == "" {
		color.Red("SMOKE_TOKEN and SMOKE_IMAGE must be set")
		os.Exit(1)
	}

	color.Cyan("🚀 Starting Classification Flow Smoke Test\n")

	// 1. Classify an image
	color.Yellow("\n1. POST /classify/v1")
	resp, body, err := sendImage("/classify/v1", token, imagePath)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 2. A second upload while the session is pending must be rejected
	color.Yellow("\n2. POST /classify/v1 again (expect 409)")
	resp, body, err = sendImage("/classify/v1", token, imagePath)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 3. Confirm the top candidate
	color.Yellow("\n3. POST /classify/v1/confirm")
	resp, body, err = sendJSON(http.MethodPost, "/classify/v1/confirm", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 4. Re-upload the same image: prior match short-circuit
	color.Yellow("\n4. POST /classify/v1 same image (expect prior match)")
	resp, body, err = sendImage("/classify/v1", token, imagePath)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 5. History
	color.Yellow("\n5. GET /stats/v1/history")
	resp, body, err = sendJSON(http.MethodGet, "/stats/v1/history", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 6. Popularity
	color.Yellow("\n6. GET /stats/v1/popularity")
	resp, body, err = sendJSON(http.MethodGet, "/stats/v1/popularity", token, nil)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Status: %s", resp.Status)
	prettyPrint(body)

	color.Cyan("\n✅ Smoke test finished")
}
