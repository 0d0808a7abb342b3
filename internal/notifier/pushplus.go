package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const defaultPushPlusURL = "http://www.pushplus.plus/send"

// PushPlusNotifier pushes messages to WeChat through the PushPlus service.
type PushPlusNotifier struct {
	Token  string
	URL    string
	Client *http.Client
}

func NewPushPlusNotifier(token string) *PushPlusNotifier {
	return &PushPlusNotifier{
		Token:  token,
		URL:    defaultPushPlusURL,
		Client: &http.Client{Timeout: 15 * time.Second},
	}
}

func (p *PushPlusNotifier) Name() string { return "pushplus" }

// Send posts the message with the html template. Newlines become <br>.
func (p *PushPlusNotifier) Send(ctx context.Context, title, text string) error {
	payload := map[string]string{
		"token":    p.Token,
		"title":    title,
		"content":  strings.ReplaceAll(text, "\n", "<br>"),
		"template": "html",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("pushplus request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("pushplus error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	// PushPlus reports failures in the body with HTTP 200.
	if code := gjson.GetBytes(respBody, "code"); code.Exists() && code.Int() != 200 {
		return fmt.Errorf("pushplus error: code %d, msg: %s", code.Int(), gjson.GetBytes(respBody, "msg").String())
	}
	return nil
}
