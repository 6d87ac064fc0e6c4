package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/yeisme/codevault/pkg/internal/model"
	"github.com/yeisme/codevault/pkg/internal/store"
	nlog "github.com/yeisme/codevault/pkg/log"
	"github.com/yeisme/codevault/pkg/metrics"
	"github.com/yeisme/codevault/pkg/rule"
	"github.com/yeisme/codevault/pkg/tracing"
)

// RedeemService 访问码兑换. 访问码状态只有 UNUSED -> USED 一次迁移.
type RedeemService struct {
	options
}

// NewRedeemService 从 context 获取 Store 与事件发布器.
func NewRedeemService(c context.Context, opts ...Option) *RedeemService {
	return &RedeemService{options: newOptions(c, opts...)}
}

// Redeem 兑换访问码并返回兑换后的文件.
//
// 候选文件按 Store 迭代顺序排列，第一个持有该未使用访问码的文件胜出，重复访问码不视为错误.
// 标记通过 Store 的比较并设置完成，并发兑换同一访问码时只有一方成功，失败方继续尝试下一个候选.
// claimantEmail 只用于事件与日志，不参与匹配.
func (s *RedeemService) Redeem(ctx context.Context, code, claimantEmail string) (*model.File, error) {
	ctx, span := tracing.StartSpan(ctx, "service.Redeem")
	defer span.End()

	code = strings.TrimSpace(code)
	email := normalizeEmail(claimantEmail)

	if code == "" {
		metrics.RedemptionsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, ErrInvalidCode
	}

	if email == "" {
		metrics.RedemptionsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, invalidInput("email is required")
	}

	if rule.ValidateVar(email, "email") != nil {
		metrics.RedemptionsTotal.WithLabelValues(metrics.ResultRejected).Inc()
		return nil, invalidInput("malformed email")
	}

	file, err := s.redeem(ctx, code)

	switch {
	case err == nil:
		metrics.RedemptionsTotal.WithLabelValues(metrics.ResultOK).Inc()
	case errors.Is(err, ErrInvalidCode):
		metrics.RedemptionsTotal.WithLabelValues(metrics.ResultInvalid).Inc()
		return nil, err
	default:
		metrics.RedemptionsTotal.WithLabelValues(metrics.ResultUnavailable).Inc()
		span.RecordError(err)
		nlog.FromContext(ctx).Error().Err(err).Msg("redeem failed")

		return nil, err
	}

	span.SetAttributes(attribute.String("file.id", file.ID))

	nlog.FromContext(ctx).Info().
		Str("file_id", file.ID).
		Str("claimant", email).
		Int("remaining", file.UnusedCodes()).
		Msg("access code redeemed")

	s.events.CodeRedeemed(ctx, file, code, email)

	return file, nil
}

func (s *RedeemService) redeem(ctx context.Context, code string) (*model.File, error) {
	candidates, err := s.candidates(ctx, code)
	if err != nil {
		return nil, err
	}

	for _, f := range candidates {
		var won bool

		err := s.call(ctx, "set code used", func(ctx context.Context) error {
			var e error

			won, e = s.store.SetCodeUsedIfUnused(ctx, f.ID, code)

			return e
		})
		if err != nil {
			return nil, err
		}

		if !won {
			continue
		}

		return s.reload(ctx, f, code), nil
	}

	return nil, ErrInvalidCode
}

// candidates 返回持有该未使用访问码的文件，优先使用后端索引.
func (s *RedeemService) candidates(ctx context.Context, code string) ([]*model.File, error) {
	var files []*model.File

	finder, indexed := store.AsCodeFinder(s.store)

	err := s.call(ctx, "find files", func(ctx context.Context) error {
		var e error

		if indexed {
			files, e = finder.FindFilesByUnusedCode(ctx, code)
		} else {
			files, e = s.store.ListFiles(ctx, store.FileFilter{})
		}

		return e
	})
	if err != nil {
		return nil, err
	}

	out := files[:0]

	for _, f := range files {
		if f.HasUnusedCode(code) {
			out = append(out, f)
		}
	}

	return out, nil
}

// reload 重新读取兑换后的文件；读取失败或读到旧数据时在副本上补记标记.
func (s *RedeemService) reload(ctx context.Context, f *model.File, code string) *model.File {
	var fresh *model.File

	err := s.call(ctx, "reload file", func(ctx context.Context) error {
		var e error

		fresh, e = s.store.GetFile(ctx, f.ID)

		return e
	})
	if err == nil && usedCode(fresh, code) {
		return fresh
	}

	base := fresh
	if err != nil {
		nlog.FromContext(ctx).Warn().Err(err).Str("file_id", f.ID).Msg("reload after redeem failed")

		base = f
	}

	local := base.Clone()
	local.MarkCodeUsed(code)

	return local
}

// usedCode 文件中存在该访问码且至少一个已使用.
func usedCode(f *model.File, code string) bool {
	for _, ac := range f.AccessCodes {
		if ac.Code == code && ac.Used {
			return true
		}
	}

	return false
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
