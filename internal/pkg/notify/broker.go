package notify

import (
	"context"
	"encoding/json"
	"strconv"
)

// 事件类型
const (
	EventCommentAdded = "comment_added"
	EventPostDeleted  = "post_deleted"
)

// Event 推送给帖子详情页订阅者的事件
type Event struct {
	Type   string          `json:"type"`
	PostID uint            `json:"postId"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Broker 按帖子 ID 分发事件
type Broker interface {
	Publish(ctx context.Context, postID uint, event Event) error
	// Subscribe 返回事件通道和取消函数；ctx 结束或调用取消函数后通道关闭
	Subscribe(ctx context.Context, postID uint) (<-chan Event, func())
}

func channelName(postID uint) string {
	return "blog:post:" + strconv.FormatUint(uint64(postID), 10)
}

// subscriberBuffer 慢订阅者超过缓冲后丢弃事件，不阻塞发布方
const subscriberBuffer = 16
