package credcache

import (
	"errors"
)

var (
	// ErrNotCached — для этой пары фермер/арендатор учетные данные
	// никогда не кэшировались.
	ErrNotCached = errors.New("credentials never cached")

	// ErrBadCredential — секрет не совпал с кэшированным хэшем.
	ErrBadCredential = errors.New("wrong credential")
)
