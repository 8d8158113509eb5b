package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/peterh/liner"

	"crypto-research-service/models"
)

const historyFile = ".research_cli_history"

// keep twice the server-side window so trimmed turns still scroll off locally
const maxLocalHistory = 20

func main() {
	server := flag.String("server", "http://localhost:8000", "base URL of the crypto research service")
	timeout := flag.Duration("timeout", 60*time.Second, "per-request timeout")
	flag.Parse()

	const (
		ansiReset  = "\033[0m"
		ansiGreen  = "\033[32m"
		ansiBlue   = "\033[34m"
		ansiYellow = "\033[33m"
	)

	client := &http.Client{Timeout: *timeout}

	model, err := fetchModel(client, *server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach %s: %v\n", *server, err)
		os.Exit(1)
	}

	fmt.Printf("%sCrypto research chat (%s)%s\n", ansiYellow, model, ansiReset)
	fmt.Println("Type your message and press Enter. Type '/reset' to clear the conversation, 'exit' or Ctrl+D to quit.")

	rl := liner.NewLiner()
	defer rl.Close()
	rl.SetCtrlCAborts(true)
	rl.SetMultiLineMode(true)

	histPath := historyPath()
	if f, err := os.Open(histPath); err == nil {
		rl.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			rl.WriteHistory(f)
			f.Close()
		}
	}()

	var history []models.ChatMessage

	for {
		fmt.Print(ansiGreen)
		input, err := rl.Prompt("You: ")
		fmt.Print(ansiReset)
		if err != nil {
			if err == liner.ErrPromptAborted {
				continue
			}
			if err == io.EOF {
				fmt.Println("\nExiting.")
				return
			}
			fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
			continue
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if input == "exit" || input == "/quit" {
			fmt.Println("Exiting.")
			return
		}
		if input == "/reset" {
			history = nil
			fmt.Println("Conversation cleared.")
			continue
		}
		rl.AppendHistory(input)

		resp, err := sendChat(client, *server, input, history)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Chat error: %v\n", err)
			continue
		}

		fmt.Printf("%s\U0001F916 %s:%s %s\n\n", ansiBlue, resp.Model, ansiReset, resp.Response)

		history = append(history,
			models.ChatMessage{Role: "user", Content: input},
			models.ChatMessage{Role: "assistant", Content: resp.Response},
		)
		if len(history) > maxLocalHistory {
			history = history[len(history)-maxLocalHistory:]
		}
	}
}

// fetchModel asks the service health endpoint which chat model it serves
func fetchModel(client *http.Client, server string) (string, error) {
	resp, err := client.Get(server + "/api/v3/health")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("health check returned %s", resp.Status)
	}

	var health struct {
		Model string `json:"model"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return "", err
	}
	if health.Model == "" {
		return "unknown model", nil
	}
	return health.Model, nil
}

func sendChat(client *http.Client, server, message string, history []models.ChatMessage) (*models.ChatResponse, error) {
	reqBody := models.ChatRequest{
		Message: message,
		History: history,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(server+"/api/v3/chat", "application/json", bytes.NewBuffer(bodyBytes))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respData, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("%s", apiErr.Error)
		}
		return nil, fmt.Errorf("service returned %s", resp.Status)
	}

	var chatResp models.ChatResponse
	if err := json.Unmarshal(respData, &chatResp); err != nil {
		return nil, err
	}
	return &chatResp, nil
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}
	return filepath.Join(home, historyFile)
}
