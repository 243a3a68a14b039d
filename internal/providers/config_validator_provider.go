package providers

import (
	"errors"
	"fsd/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func (cv *CnfValidator) Validate() error {
	for _, section := range []interface{}{
		&cv.conf.WebServer,
		&cv.conf.Logger,
		&cv.conf.Persistence,
		&cv.conf.Sync,
		&cv.conf.Fetcher,
	} {
		v := validate.Struct(section)
		if !v.Validate() {
			return errors.New(v.Errors.String())
		}
	}
	if cv.conf.Sync.NotifyMax < 0 {
		return errors.New("sync.notifyMax must not be negative")
	}
	if cv.conf.Sync.BadgeCap < 0 {
		return errors.New("sync.badgeCap must not be negative")
	}
	return nil
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}
