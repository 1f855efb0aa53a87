package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// adminClient is a thin HTTP client against internal/operator's admin
// surface, authenticated with the "admin"-scoped API key.
type adminClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func clientFromCmd(cmd *cobra.Command) (*adminClient, error) {
	server, err := cmd.Flags().GetString("server")
	if err != nil {
		return nil, err
	}
	apiKey, err := cmd.Flags().GetString("api-key")
	if err != nil {
		return nil, err
	}
	if apiKey == "" {
		apiKey = os.Getenv("SHIFTCTL_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("缺少 API 密钥：使用 --api-key 或 SHIFTCTL_API_KEY")
	}
	return &adminClient{baseURL: server, apiKey: apiKey, http: &http.Client{Timeout: 10 * time.Second}}, nil
}

func (c *adminClient) postJSON(path string, body interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(http.MethodPost, c.baseURL+path, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	return c.do(req)
}

func (c *adminClient) get(path string) (map[string]interface{}, error) {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	return c.do(req)
}

func (c *adminClient) do(req *http.Request) (map[string]interface{}, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求同步中心失败: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}
	if resp.StatusCode >= 300 {
		return out, fmt.Errorf("同步中心返回 %d: %v", resp.StatusCode, out)
	}
	return out, nil
}
