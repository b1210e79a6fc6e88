package xapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
)

// Credentials for a regular X account. Email is only needed when the
// service raises a confirmation challenge during login.
type Credentials struct {
	Username string
	Password string
	Email    string
}

const (
	subtaskJSInstrumentation   = "LoginJsInstrumentationSubtask"
	subtaskEnterUserIdentifier = "LoginEnterUserIdentifierSSO"
	subtaskEnterPassword       = "LoginEnterPassword"
	subtaskDuplicationCheck    = "AccountDuplicationCheck"
	subtaskConfirmEmail        = "LoginAcid"
	subtaskSuccess             = "LoginSuccessSubtask"
	subtaskDeny                = "DenyLoginSubtask"
)

const maxFlowSteps = 10

// Login runs the onboarding task flow the web client uses and returns
// an authenticated Session. The flow is a server-driven state machine:
// each response names the next subtask, and we answer until it reports
// success or denies us.
func (c *Client) Login(ctx context.Context, creds Credentials) (*Session, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("username and password are required")
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	hc := &http.Client{Timeout: c.timeout, Jar: jar}

	guestToken, err := c.activateGuest(ctx, hc)
	if err != nil {
		return nil, fmt.Errorf("guest activation failed: %w", err)
	}

	flow := &loginFlow{
		url:        c.baseURL + "/1.1/onboarding/task.json",
		bearer:     c.bearer,
		guestToken: guestToken,
		httpClient: hc,
		creds:      creds,
	}
	if err := flow.run(ctx); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}

	csrf := cookieValue(jar, c.baseURL, "ct0")
	if csrf == "" {
		return nil, fmt.Errorf("login flow finished without a ct0 cookie")
	}
	if cookieValue(jar, c.baseURL, "auth_token") == "" {
		return nil, fmt.Errorf("login flow finished without an auth_token cookie")
	}

	return &Session{
		baseURL:    c.baseURL,
		bearer:     c.bearer,
		csrf:       csrf,
		httpClient: hc,
	}, nil
}

type loginFlow struct {
	url        string
	bearer     string
	guestToken string
	token      string
	httpClient *http.Client
	creds      Credentials
}

type flowSubtask struct {
	SubtaskID string `json:"subtask_id"`
}

type flowResponse struct {
	FlowToken string        `json:"flow_token"`
	Status    string        `json:"status"`
	Subtasks  []flowSubtask `json:"subtasks"`
	Errors    []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (f *loginFlow) run(ctx context.Context) error {
	resp, err := f.post(ctx, "?flow_name=login", startPayload())
	if err != nil {
		return err
	}

	for step := 0; step < maxFlowSteps; step++ {
		next, done, err := f.advance(ctx, resp)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		resp = next
	}
	return fmt.Errorf("flow did not converge after %d steps", maxFlowSteps)
}

// advance answers the first subtask we know how to handle. Responses
// usually carry several subtasks; only one is actionable.
func (f *loginFlow) advance(ctx context.Context, resp *flowResponse) (*flowResponse, bool, error) {
	if resp.Status == "success" && len(resp.Subtasks) == 0 {
		return nil, true, nil
	}

	for _, st := range resp.Subtasks {
		switch st.SubtaskID {
		case subtaskSuccess:
			return nil, true, nil
		case subtaskDeny:
			return nil, false, fmt.Errorf("login denied by the service")
		}
	}

	for _, st := range resp.Subtasks {
		payload, ok, err := f.subtaskPayload(st.SubtaskID)
		if err != nil {
			return nil, false, fmt.Errorf("subtask %s: %w", st.SubtaskID, err)
		}
		if !ok {
			continue
		}
		next, err := f.post(ctx, "", payload)
		if err != nil {
			return nil, false, fmt.Errorf("subtask %s: %w", st.SubtaskID, err)
		}
		return next, false, nil
	}

	ids := make([]string, len(resp.Subtasks))
	for i, st := range resp.Subtasks {
		ids[i] = st.SubtaskID
	}
	return nil, false, fmt.Errorf("no supported subtask in %v", ids)
}

// subtaskPayload builds the answer for one subtask. ok is false for
// subtasks this client does not handle.
func (f *loginFlow) subtaskPayload(id string) (map[string]any, bool, error) {
	input := map[string]any{"subtask_id": id}

	switch id {
	case subtaskJSInstrumentation:
		input["js_instrumentation"] = map[string]any{"response": "{}", "link": "next_link"}
	case subtaskEnterUserIdentifier:
		input["settings_list"] = map[string]any{
			"setting_responses": []any{
				map[string]any{
					"key":           "user_identifier",
					"response_data": map[string]any{"text_data": map[string]any{"result": f.creds.Username}},
				},
			},
			"link": "next_link",
		}
	case subtaskEnterPassword:
		input["enter_password"] = map[string]any{"password": f.creds.Password, "link": "next_link"}
	case subtaskDuplicationCheck:
		input["check_logged_in_account"] = map[string]any{"link": "AccountDuplicationCheck_false"}
	case subtaskConfirmEmail:
		if f.creds.Email == "" {
			return nil, false, fmt.Errorf("confirmation challenge needs the account email")
		}
		input["enter_text"] = map[string]any{"text": f.creds.Email, "link": "next_link"}
	default:
		return nil, false, nil
	}

	return map[string]any{
		"flow_token":     f.token,
		"subtask_inputs": []any{input},
	}, true, nil
}

func startPayload() map[string]any {
	return map[string]any{
		"input_flow_data": map[string]any{
			"flow_context": map[string]any{
				"debug_overrides": map[string]any{},
				"start_location":  map[string]any{"location": "splash_screen"},
			},
		},
		"subtask_versions": map[string]any{},
	}
}

func (f *loginFlow) post(ctx context.Context, query string, payload map[string]any) (*flowResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", f.url+query, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+f.bearer)
	req.Header.Set("X-Guest-Token", f.guestToken)
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("flow error %d: %s", resp.StatusCode, string(b))
	}

	var fr flowResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(fr.Errors) > 0 {
		return nil, fmt.Errorf("flow error %d: %s", fr.Errors[0].Code, fr.Errors[0].Message)
	}

	f.token = fr.FlowToken
	return &fr, nil
}

func cookieValue(jar http.CookieJar, baseURL, name string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	for _, c := range jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
