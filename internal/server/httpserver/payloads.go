package httpserver

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/server/models"
	"github.com/dmitrijs2005/storefront/internal/server/storage"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	maxUploadSize = 10 << 20
	// maxFormBody caps the whole product request: the image plus the text fields.
	maxFormBody = maxUploadSize + 1<<20
)

// Passwords are capped at 72 bytes, the most bcrypt looks at.
var passwordRules = []validation.Rule{validation.Required, validation.Length(6, 72)}

// ValidateStringEquals checks that the value equals str.
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("passwords must match")
		}
		return nil
	}
}

type registerPayload struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (p registerPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required, validation.Length(3, 20)),
		validation.Field(&p.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&p.Password, passwordRules...),
		validation.Field(
			&p.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(p.Password)),
		),
	)
}

type loginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (p loginPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Username, validation.Required),
		validation.Field(&p.Password, validation.Required),
	)
}

type logoutPayload struct {
	RefreshToken string `json:"refresh_token"`
}

type resetRequestPayload struct {
	Email string `json:"email"`
}

func (p resetRequestPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

type resetPasswordPayload struct {
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (p resetPasswordPayload) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Token, validation.Required),
		validation.Field(&p.Password, passwordRules...),
		validation.Field(
			&p.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(p.Password)),
		),
	)
}

// productPayload is a product form. Nil fields were not submitted.
type productPayload struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	Price       *float64              `json:"price"`
	Category    *string               `json:"category"`
	IsAvailable *bool                 `json:"is_available"`
	Image       *multipart.FileHeader `json:"image"`

	partial bool
}

func positive(value any) error {
	if f, ok := value.(*float64); ok && f != nil && *f <= 0 {
		return errors.New("Price must be a positive number.")
	}
	return nil
}

func allowedImage(value any) error {
	fh, _ := value.(*multipart.FileHeader)
	if fh != nil && !storage.IsAllowedImage(fh.Filename) {
		return errors.New("Images Only!")
	}
	return nil
}

func categoryValues() []any {
	out := make([]any, len(models.Categories))
	for i, c := range models.Categories {
		out[i] = c
	}
	return out
}

func (p productPayload) Validate() error {
	var required validation.Rule = validation.Required
	priceRules := []validation.Rule{validation.NotNil, validation.By(positive)}
	if p.partial {
		required = validation.NilOrNotEmpty
		priceRules = priceRules[1:]
	}
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, required, validation.Length(3, 100)),
		validation.Field(&p.Description, validation.Length(0, 500)),
		validation.Field(&p.Price, priceRules...),
		validation.Field(&p.Category, required, validation.In(categoryValues()...)),
		validation.Field(&p.Image, validation.By(allowedImage)),
	)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "on":
		return true, nil
	case "n", "no", "off", "":
		return false, nil
	}
	return strconv.ParseBool(s)
}

// parseProductForm reads a multipart or urlencoded product form. Fields
// that fail to parse are reported alongside the validation errors.
func parseProductForm(w http.ResponseWriter, r *http.Request, partial bool) (*productPayload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBody)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, err
		}
		return nil, badRequest("Failed to parse form")
	}

	p := &productPayload{partial: partial}
	parseErrs := validation.Errors{}

	value := func(key string) (string, bool) {
		vs, ok := r.PostForm[key]
		if !ok || len(vs) == 0 {
			return "", false
		}
		return vs[0], true
	}

	if v, ok := value("name"); ok {
		p.Name = &v
	}
	if v, ok := value("description"); ok {
		p.Description = &v
	}
	if v, ok := value("category"); ok {
		p.Category = &v
	}
	if v, ok := value("price"); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			parseErrs["price"] = errors.New("must be a number")
		} else {
			p.Price = &f
		}
	}
	if v, ok := value("is_available"); ok {
		b, err := parseBool(v)
		if err != nil {
			parseErrs["is_available"] = errors.New("must be a boolean")
		} else {
			p.IsAvailable = &b
		}
	}
	if r.MultipartForm != nil {
		if files := r.MultipartForm.File["image"]; len(files) > 0 {
			p.Image = files[0]
		}
	}

	err := p.Validate()
	var verrs validation.Errors
	if err != nil && !errors.As(err, &verrs) {
		return nil, err
	}
	for field, e := range parseErrs {
		if verrs == nil {
			verrs = validation.Errors{}
		}
		verrs[field] = e
	}
	if len(verrs) > 0 {
		return nil, verrs
	}
	return p, nil
}
