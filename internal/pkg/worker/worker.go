package worker

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NotificationTask 新评论通知作者的任务
type NotificationTask struct {
	AuthorSubject string
	PostID        uint
	PostTitle     string
	CommenterName string
	Retry         int // 重试次数
}

// Sender 实际投递通知（阿里云推送或测试桩）
type Sender interface {
	PushToAccount(accountID string, title, body string, extParameters map[string]string) error
}

// Recorder 任务结果计数，pkg/metrics 实现
type Recorder interface {
	RecordPushTask(outcome string)
}

type WorkerPool struct {
	TaskQueue  chan NotificationTask
	RetryQueue chan NotificationTask // 重试队列
	Sender     Sender
	WorkerNum  int
	MaxRetry   int           // 最大重试次数
	RetryDelay time.Duration // 第 n 次重试等待 n*RetryDelay

	log     *zap.Logger
	metrics Recorder
	quit    chan struct{}
	wg      sync.WaitGroup
	stop    sync.Once
}

func NewWorkerPool(sender Sender, workerNum int, bufferSize int, log *zap.Logger, metrics Recorder) *WorkerPool {
	if workerNum <= 0 {
		workerNum = 1
	}
	if bufferSize < 2 {
		bufferSize = 2
	}
	return &WorkerPool{
		TaskQueue:  make(chan NotificationTask, bufferSize),
		RetryQueue: make(chan NotificationTask, bufferSize/2),
		Sender:     sender,
		WorkerNum:  workerNum,
		MaxRetry:   3, // 最多重试3次
		RetryDelay: time.Second,
		log:        log,
		metrics:    metrics,
		quit:       make(chan struct{}),
	}
}

func (p *WorkerPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	// 启动重试处理协程
	p.wg.Add(1)
	go p.retryWorker()
	p.log.Info("notification worker pool started", zap.Int("workers", p.WorkerNum))
}

// Stop 通知所有协程退出并等待；队列中未处理的任务丢弃
func (p *WorkerPool) Stop() {
	p.stop.Do(func() {
		close(p.quit)
		p.wg.Wait()
	})
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.TaskQueue:
			p.handle(id, task)
		}
	}
}

func (p *WorkerPool) handle(id int, task NotificationTask) {
	err := p.processTask(task)
	if err == nil {
		p.record("sent")
		return
	}

	p.log.Warn("notification failed",
		zap.Int("worker", id),
		zap.Uint("post_id", task.PostID),
		zap.String("author", task.AuthorSubject),
		zap.Error(err),
	)

	// 如果未达到最大重试次数，加入重试队列
	if task.Retry < p.MaxRetry {
		task.Retry++
		select {
		case p.RetryQueue <- task:
			p.record("retried")
			return
		default:
		}
	}
	p.logFailedTask(task, err)
}

func (p *WorkerPool) retryWorker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.quit:
			return
		case task := <-p.RetryQueue:
			// 延迟重试，避免立即重试
			select {
			case <-p.quit:
				return
			case <-time.After(time.Duration(task.Retry) * p.RetryDelay):
			}

			select {
			case p.TaskQueue <- task:
			default:
				p.logFailedTask(task, nil)
			}
		}
	}
}

func (p *WorkerPool) processTask(task NotificationTask) error {
	body := fmt.Sprintf("%s commented on \"%s\"", task.CommenterName, task.PostTitle)
	return p.Sender.PushToAccount(task.AuthorSubject, "New comment", body, map[string]string{
		"postId": fmt.Sprint(task.PostID),
	})
}

func (p *WorkerPool) logFailedTask(task NotificationTask, err error) {
	p.record("dropped")
	p.log.Error("notification dropped",
		zap.Uint("post_id", task.PostID),
		zap.String("author", task.AuthorSubject),
		zap.Int("retry", task.Retry),
		zap.Error(err),
	)
}

func (p *WorkerPool) record(outcome string) {
	if p.metrics != nil {
		p.metrics.RecordPushTask(outcome)
	}
}

// AddTask 非阻塞入队，队列满时丢弃
func (p *WorkerPool) AddTask(task NotificationTask) {
	select {
	case p.TaskQueue <- task:
	default:
		p.logFailedTask(task, nil)
	}
}
