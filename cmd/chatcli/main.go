package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
)

// Terminal client for the assistant API. Logs in, opens a session and
// runs a REPL against /chat/v1, rendering the per-turn trace so routing
// and grading decisions are visible while testing prompts.

var (
	promptColor = color.New(color.FgCyan, color.Bold)
	replyColor  = color.New(color.FgGreen)
	metaColor   = color.New(color.FgYellow)
	traceColor  = color.New(color.FgHiBlack)
	errColor    = color.New(color.FgRed)
)

// Simplified DTOs for the client.
type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type loginData struct {
	AccessToken string `json:"access_token"`
	User        struct {
		Email          string   `json:"email"`
		FullName       string   `json:"full_name"`
		AllowedDomains []string `json:"allowed_domains"`
	} `json:"user"`
}

type sessionData struct {
	Id string `json:"id"`
}

type replyMessage struct {
	Content   string   `json:"content"`
	Domain    string   `json:"domain"`
	Verified  bool     `json:"verified"`
	Citations []string `json:"citations"`
}

type messageData struct {
	Title          string        `json:"title"`
	Reply          *replyMessage `json:"reply"`
	Domain         string        `json:"domain"`
	Action         string        `json:"action"`
	Grounded       bool          `json:"grounded"`
	Clarification  bool          `json:"clarification"`
	Retries        int           `json:"retries"`
	MemoryPromoted bool          `json:"memory_promoted"`
	Sources        []struct {
		SourceId  string  `json:"source_id"`
		Title     string  `json:"title"`
		Relevance float64 `json:"relevance"`
	} `json:"sources"`
	Trace []struct {
		Stage  string `json:"stage"`
		Detail string `json:"detail"`
	} `json:"trace"`
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func main() {
	baseURL := flag.String("url", "http://localhost:3000/api", "API base URL")
	email := flag.String("email", "admin@byteme.example", "login email")
	password := flag.String("password", "password123", "login password")
	showTrace := flag.Bool("trace", true, "render the workflow trace per turn")
	flag.Parse()

	c := &client{
		baseURL: strings.TrimRight(*baseURL, "/"),
		http:    &http.Client{Timeout: 90 * time.Second},
	}

	login, err := c.login(*email, *password)
	if err != nil {
		errColor.Printf("Login failed: %v\n", err)
		os.Exit(1)
	}
	metaColor.Printf("Signed in as %s (domains: %s)\n", login.User.Email, strings.Join(login.User.AllowedDomains, ", "))

	sessionID, err := c.createSession()
	if err != nil {
		errColor.Printf("Failed to create session: %v\n", err)
		os.Exit(1)
	}
	metaColor.Printf("Session: %s\n", sessionID)
	fmt.Println("Type a question, /new for a fresh session, /quit to exit.")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024)

	for {
		promptColor.Print("you> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return
		case line == "/new":
			sessionID, err = c.createSession()
			if err != nil {
				errColor.Printf("Failed to create session: %v\n", err)
				continue
			}
			metaColor.Printf("Session: %s\n", sessionID)
			continue
		}

		start := time.Now()
		res, err := c.sendMessage(sessionID, line)
		elapsed := time.Since(start).Round(time.Millisecond)
		if err != nil {
			errColor.Printf("Error: %v\n", err)
			continue
		}

		if *showTrace {
			for _, t := range res.Trace {
				traceColor.Printf("  [%s] %s\n", t.Stage, t.Detail)
			}
		}

		if res.Reply != nil {
			replyColor.Printf("assistant> %s\n", res.Reply.Content)
		}
		meta := fmt.Sprintf("domain=%s grounded=%v retries=%d", res.Domain, res.Grounded, res.Retries)
		if res.Action != "" {
			meta += " action=" + res.Action
		}
		if res.Clarification {
			meta += " clarification=true"
		}
		if res.MemoryPromoted {
			meta += " memory-promoted=true"
		}
		metaColor.Printf("  (%s, %s)\n", meta, elapsed)

		for _, s := range res.Sources {
			traceColor.Printf("  source %s: %s (%.2f)\n", shortID(s.SourceId), s.Title, s.Relevance)
		}
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (c *client) login(email, password string) (*loginData, error) {
	body := map[string]interface{}{"email": email, "password": password}
	raw, err := c.post("/auth/login", body)
	if err != nil {
		return nil, err
	}

	var data loginData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	c.token = data.AccessToken
	return &data, nil
}

func (c *client) createSession() (string, error) {
	raw, err := c.post("/chat/v1/session", nil)
	if err != nil {
		return "", err
	}

	var data sessionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return "", err
	}
	return data.Id, nil
}

func (c *client) sendMessage(sessionID, message string) (*messageData, error) {
	body := map[string]interface{}{"session_id": sessionID, "message": message}
	raw, err := c.post("/chat/v1/message", body)
	if err != nil {
		return nil, err
	}

	var data messageData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *client) post(path string, body interface{}) (json.RawMessage, error) {
	var payload io.Reader
	if body != nil {
		jsonBytes, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		payload = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(rawBody))
	}
	if !env.Success {
		return nil, fmt.Errorf("API error %d: %s", env.Code, env.Message)
	}
	return env.Data, nil
}
