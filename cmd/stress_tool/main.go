package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var httpClient *http.Client

func init() {
	// 优化 HTTP Client 配置
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 500
	t.MaxIdleConnsPerHost = 500
	t.MaxConnsPerHost = 500
	httpClient = &http.Client{
		Transport: t,
		Timeout:   10 * time.Second,
	}
}

type apiResponse struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:8080", "Base URL")
		token   = flag.String("token", "", "会话 token (登录后从 blog_session cookie 获取)")
		postID  = flag.Uint("post", 0, "目标帖子 ID")
		total   = flag.Int("n", 200, "并发评论数")
	)
	flag.Parse()

	if *token == "" || *postID == 0 {
		fmt.Println("需要 -token 和 -post")
		os.Exit(1)
	}
	id := *postID

	before, err := countComments(*baseURL, id)
	if err != nil {
		fmt.Printf("读取评论失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("开始压测：%d 个请求并发向帖子 %d 追加评论...\n", *total, id)

	// 并发追加评论
	var wg sync.WaitGroup
	var successCount, failCount int64
	start := time.Now()

	for i := 1; i <= *total; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if addComment(*baseURL, *token, id, n) {
				atomic.AddInt64(&successCount, 1)
			} else {
				atomic.AddInt64(&failCount, 1)
			}
		}(i)
	}

	wg.Wait()
	duration := time.Since(start)

	after, err := countComments(*baseURL, id)
	if err != nil {
		fmt.Printf("读取评论失败: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("--------------------------------------------------")
	fmt.Printf("压测结束，耗时: %v\n", duration)
	fmt.Printf("总请求数: %d\n", *total)
	fmt.Printf("QPS: %.2f\n", float64(*total)/duration.Seconds())
	fmt.Printf("成功: %d 失败: %d\n", successCount, failCount)
	fmt.Printf("评论数: %d -> %d (新增 %d)\n", before, after, after-before)
	fmt.Println("--------------------------------------------------")

	if int64(after-before) != successCount {
		fmt.Println("❌ 评论丢失：成功写入数与实际新增数不一致")
		os.Exit(1)
	}
	fmt.Println("✅ 没有评论丢失")
}

func do(req *http.Request, token string) (*apiResponse, error) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var result apiResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func addComment(baseURL, token string, postID uint, n int) bool {
	payload := map[string]interface{}{
		"id":   postID,
		"text": fmt.Sprintf("stress comment #%d", n),
	}
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest(http.MethodPost, baseURL+"/api/blog-post/comments", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	result, err := do(req, token)
	if err != nil {
		return false
	}
	return result.Success
}

func countComments(baseURL string, postID uint) (int, error) {
	req, _ := http.NewRequest(http.MethodGet, fmt.Sprintf("%s/api/blog-post/comments?blogID=%d", baseURL, postID), nil)
	result, err := do(req, "")
	if err != nil {
		return 0, err
	}
	if !result.Success {
		return 0, fmt.Errorf("%s", result.Message)
	}

	var comments []json.RawMessage
	if err := json.Unmarshal(result.Data, &comments); err != nil {
		return 0, err
	}
	return len(comments), nil
}
