package mailer

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/unibeninterns/server2-v2-sub000/config"
)

// Mailer 邮件发送接口
// 所有通知均为 best-effort：调用方负责吞掉错误，发送失败不得阻断主流程
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// smtpMailer 基于 gomail 的 SMTP 实现
type smtpMailer struct {
	dialer *gomail.Dialer
	from   string
	logger *zap.Logger
}

// NewSMTPMailer 创建 SMTP 邮件发送器
func NewSMTPMailer(cfg *config.MailConfig, logger *zap.Logger) Mailer {
	d := gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.Username, cfg.Password)
	return &smtpMailer{
		dialer: d,
		from:   cfg.From,
		logger: logger,
	}
}

// Send 发送一封 HTML 邮件
// gomail 不支持 context，通过 goroutine + select 实现超时控制
func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", body)

	done := make(chan error, 1)
	go func() {
		done <- m.dialer.DialAndSend(msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("SMTP 发送失败: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("SMTP 发送超时: %w", ctx.Err())
	}
}

// nopMailer 未配置 SMTP 时的降级实现：仅记录日志
type nopMailer struct {
	logger *zap.Logger
}

// NewNopMailer 创建仅记录日志的空实现
func NewNopMailer(logger *zap.Logger) Mailer {
	return &nopMailer{logger: logger}
}

func (m *nopMailer) Send(_ context.Context, to, subject, _ string) error {
	m.logger.Info("邮件通知（SMTP 未配置，仅记录）",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}
