package auth

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

const TextCodeEmailTaken = "email_taken"

// ErrEmailTaken is returned when registering an address that already has an account.
var ErrEmailTaken = goerrors.New("an account with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeEmailTaken).
	WithCode(goerrors.CodeConflict)

// VerificationNotifier sends the email verification code. It is satisfied
// by notify.Mailer.
type VerificationNotifier interface {
	SendVerificationEmail(email, code string) bool
}

type RegisterUserMessage struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate checks the registration payload.
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
		validation.Field(&e.Role, validation.By(func(value any) error {
			raw, _ := value.(string)
			if raw == "" {
				return nil
			}
			if _, ok := ParseRole(raw); !ok {
				return fmt.Errorf("unknown role %q", raw)
			}
			return nil
		})),
	)
}

// RegisterUserHandler creates local accounts. It is the only writer of the
// users table; federated sign-in links to accounts created here.
type RegisterUserHandler struct {
	repo     RepositoryManager
	notifier VerificationNotifier
	audit    *AuditLogger
	logger   Logger
	code     func() (string, error)
}

// NewRegisterUserHandler wires the handler. notifier and audit may be nil.
func NewRegisterUserHandler(repo RepositoryManager, notifier VerificationNotifier, audit *AuditLogger, logger Logger) *RegisterUserHandler {
	if logger == nil {
		logger = defLogger{}
	}
	return &RegisterUserHandler{
		repo:     repo,
		notifier: notifier,
		audit:    audit,
		logger:   logger,
		code:     verificationCode,
	}
}

func (h *RegisterUserHandler) Execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user registration",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *RegisterUserHandler) execute(ctx context.Context, event RegisterUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid registration").
			WithCode(goerrors.CodeBadRequest)
	}

	role, _ := ParseRole(event.Role)
	if event.Role == "" {
		role = RoleCandidate
	}

	user := &User{
		Email:     NormalizeEmail(event.Email),
		Role:      role,
		FirstName: event.FirstName,
		LastName:  event.LastName,
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if existing, err := h.repo.Users().GetByEmailTx(ctx, tx, user.Email); err == nil && existing != nil {
			return ErrEmailTaken
		}

		created, err := h.repo.Users().CreateTx(ctx, tx, user)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}
		user = created
		return nil
	})

	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user registration transaction failed")
	}

	h.audit.Record(ctx, strconv.FormatInt(user.ID, 10), ActivityEventUserRegistered, map[string]any{
		"role": string(user.Role),
	})

	h.sendVerification(user)

	return user, nil
}

func (h *RegisterUserHandler) sendVerification(user *User) {
	if h.notifier == nil {
		return
	}

	code, err := h.code()
	if err != nil {
		h.logger.Error("verification code generation failed", "user_id", user.ID, "error", err)
		return
	}

	if !h.notifier.SendVerificationEmail(user.Email, code) {
		h.logger.Warn("verification email not queued", "user_id", user.ID)
	}
}

func verificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
