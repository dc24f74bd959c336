package env

import (
	"context"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/mikeydub/go-gallery-layout/service/logger"
	"github.com/spf13/viper"
)

var validators = map[string][]string{}

var v = validator.New()

var validatorsMu = &sync.Mutex{}

// RegisterValidation registers validator tags that the value of name is checked against whenever it is read
func RegisterValidation(name string, tags ...string) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	validators[name] = dedupe(append(validators[name], tags...))
}

func Get[T any](ctx context.Context, name string) T {
	it, _ := GetIfExists[T](ctx, name)
	return it
}

func GetIfExists[T any](ctx context.Context, name string) (T, bool) {
	validate(ctx, name)

	if !viper.IsSet(name) {
		return *new(T), false
	}

	it, ok := viper.Get(name).(T)
	if !ok {
		logger.For(ctx).Errorf("invalid env var: %s, expected type: %T", name, it)
		return *new(T), false
	}

	return it, true
}

func GetString(ctx context.Context, name string) string {
	validate(ctx, name)
	return viper.GetString(name)
}

// GetInt reads an int, converting from the string form env vars arrive in
func GetInt(ctx context.Context, name string) int {
	validate(ctx, name)
	return viper.GetInt(name)
}

func GetBool(ctx context.Context, name string) bool {
	validate(ctx, name)
	return viper.GetBool(name)
}

func GetFloat64(ctx context.Context, name string) float64 {
	validate(ctx, name)
	return viper.GetFloat64(name)
}

func validate(ctx context.Context, name string) {
	validatorsMu.Lock()
	defer validatorsMu.Unlock()
	for _, tag := range validators[name] {
		err := v.Var(viper.Get(name), tag)
		if err != nil {
			logger.For(ctx).Errorf("invalid env var: %s, tag: %s, err: %s", name, tag, err.Error())
		}
	}
}

func dedupe(src []string) []string {
	result := src[:0]

	seen := make(map[string]bool)
	for _, x := range src {
		if !seen[x] {
			result = append(result, x)
			seen[x] = true
		}
	}
	return result
}
