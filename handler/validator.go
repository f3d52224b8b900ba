package handler

import (
	"crm/pkg/goutil"
	"crm/pkg/router"
	"crm/pkg/validator"
	"errors"
	"regexp"
)

var (
	ErrMissingFile      = errors.New("missing file")
	ErrFileSizeTooLarge = errors.New("file size too large")
	ErrInvalidFileType  = errors.New("invalid file type")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

func EmailValidator(optional bool) validator.Validator {
	return &validator.String{
		Optional: optional,
		MaxLen:   320,
		Regex:    emailRegex,
	}
}

func PasswordValidator(optional bool) validator.Validator {
	return &validator.String{
		Optional: optional,
		MinLen:   8,
		MaxLen:   60,
	}
}

func DisplayNameValidator(optional bool) validator.Validator {
	return &validator.String{
		Optional: optional,
		MinLen:   1,
		MaxLen:   60,
	}
}

func ResourceNameValidator(optional bool) validator.Validator {
	return &validator.String{
		Optional: optional,
		MinLen:   1,
		MaxLen:   60,
	}
}

func ResourceDescValidator(optional bool) validator.Validator {
	return &validator.String{
		Optional: optional,
		MaxLen:   200,
	}
}

type fileInfoValidator struct {
	maxSize     int64
	contentType []string
	optional    bool
}

func (v *fileInfoValidator) Validate(value interface{}) error {
	fileInfo, ok := value.(*router.FileMeta)
	if !ok {
		return errors.New("expect FileInfo")
	}

	if fileInfo == nil || fileInfo.File == nil {
		if !v.optional {
			return ErrMissingFile
		}
	} else {
		if fileInfo.FileHeader.Size > v.maxSize {
			return ErrFileSizeTooLarge
		}
		if len(v.contentType) > 0 && !goutil.ContainsStr(v.contentType, fileInfo.FileHeader.Header.Get("Content-Type")) {
			return ErrInvalidFileType
		}
	}

	return nil
}

func FileInfoValidator(optional bool, maxSize int64, contentType []string) validator.Validator {
	return &fileInfoValidator{
		optional:    optional,
		maxSize:     maxSize,
		contentType: contentType,
	}
}
