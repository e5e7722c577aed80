package application

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sharecycle/accounts/internal/domain/entity"
	"github.com/sharecycle/accounts/pkg/mailer"
	mailtpl "github.com/sharecycle/accounts/pkg/mailer/templates"
)

// enqueue hands a job to the outbox. Failures are logged, never
// returned: the data mutation that triggered the email has already
// committed and must not appear to fail.
func (s *Service) enqueue(ctx context.Context, job mailer.EmailJob) {
	if s.Outbox == nil || job.To == "" {
		return
	}
	if err := s.Outbox.Enqueue(ctx, job); err != nil {
		s.logError(err, "failed to enqueue email", logrus.Fields{"template": job.Template, "to": job.To})
	}
}

func (s *Service) baseData(a *entity.Account, recipient string, opts ...mailtpl.Option) map[string]any {
	d := mailtpl.NewBaseEmailData(s.Cfg, a.DisplayName, a.Email, recipient, a.Language, opts...)
	return mailtpl.ToMap(d)
}

func metaOpts(meta RequestMeta) []mailtpl.Option {
	var opts []mailtpl.Option
	if meta.IP != "" {
		opts = append(opts, mailtpl.WithIP(meta.IP))
	}
	if meta.UserAgent != "" {
		opts = append(opts, mailtpl.WithUserAgent(meta.UserAgent))
	}
	if !meta.At.IsZero() {
		opts = append(opts, mailtpl.WithTime(meta.At))
	}
	return opts
}

func (s *Service) sendMailVerification(ctx context.Context, a *entity.Account, code string) {
	url := fmt.Sprintf("%s/#/email/verify?code=%s", s.Cfg.Hostname, code)
	s.enqueue(ctx, mailer.EmailJob{
		To:       a.UnverifiedEmail,
		Template: mailtpl.MailVerification,
		Data:     s.baseData(a, a.UnverifiedEmail, mailtpl.WithActionURL(url), mailtpl.WithCode(code)),
	})
}

func (s *Service) sendChangeMailNotice(ctx context.Context, a *entity.Account, oldEmail, newEmail string) {
	s.enqueue(ctx, mailer.EmailJob{
		To:       oldEmail,
		Template: mailtpl.ChangeMailNotice,
		Data:     s.baseData(a, oldEmail, mailtpl.WithNewEmail(newEmail)),
	})
}

func (s *Service) sendAccountDeleteRequest(ctx context.Context, a *entity.Account, code string) {
	url := fmt.Sprintf("%s/#/user/delete?code=%s", s.Cfg.Hostname, code)
	s.enqueue(ctx, mailer.EmailJob{
		To:       a.Email,
		Template: mailtpl.AccountDeleteRequest,
		Data:     s.baseData(a, a.Email, mailtpl.WithActionURL(url), mailtpl.WithCode(code)),
	})
}

func (s *Service) sendAccountDeleteSuccess(ctx context.Context, a *entity.Account, recipient string) {
	s.enqueue(ctx, mailer.EmailJob{
		To:       recipient,
		Template: mailtpl.AccountDeleteSuccess,
		Data:     s.baseData(a, recipient),
	})
}

func (s *Service) sendPasswordReset(ctx context.Context, a *entity.Account, code string, meta RequestMeta) {
	url := fmt.Sprintf("%s/#/password/reset?code=%s", s.Cfg.Hostname, code)
	opts := append([]mailtpl.Option{mailtpl.WithActionURL(url), mailtpl.WithCode(code)}, metaOpts(meta)...)
	s.enqueue(ctx, mailer.EmailJob{
		To:       a.Email,
		Template: mailtpl.PasswordReset,
		Data:     s.baseData(a, a.Email, opts...),
	})
}

func (s *Service) sendPasswordChange(ctx context.Context, a *entity.Account, meta RequestMeta) {
	s.enqueue(ctx, mailer.EmailJob{
		To:       a.Email,
		Template: mailtpl.PasswordChange,
		Data:     s.baseData(a, a.Email, metaOpts(meta)...),
	})
}
