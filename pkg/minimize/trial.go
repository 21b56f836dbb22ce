package minimize

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Trial is one mutate/verify/rollback unit on a single file. Run writes the
// candidate bytes and asks verify for a verdict. Unless the verdict is
// positive the previous bytes are written back, on errors and panics too, so
// the file never keeps an unverified state.
type Trial struct {
	Path      string
	Previous  []byte
	Candidate []byte
	// AfterWrite runs after every write, candidate and restore alike
	AfterWrite func(ctx context.Context, path string) error
}

// Run performs the trial and reports whether the candidate was kept.
func (t Trial) Run(ctx context.Context, verify func(ctx context.Context) bool) (accepted bool, err error) {
	defer func() {
		if accepted {
			return
		}
		r := recover()
		// The restore must happen even if ctx was cancelled mid trial
		if rerr := t.write(context.WithoutCancel(ctx), t.Previous); rerr != nil {
			err = errors.Join(err, fmt.Errorf("failed to restore %s: %w", t.Path, rerr))
		}
		if r != nil {
			panic(r)
		}
	}()

	if err := t.write(ctx, t.Candidate); err != nil {
		return false, err
	}
	return verify(ctx), nil
}

func (t Trial) write(ctx context.Context, content []byte) error {
	if err := os.WriteFile(t.Path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", t.Path, err)
	}
	if t.AfterWrite != nil {
		return t.AfterWrite(ctx, t.Path)
	}
	return nil
}

// restoreIfChanged writes original back unless the file already holds it.
func restoreIfChanged(path string, original []byte) error {
	current, err := os.ReadFile(path)
	if err == nil && string(current) == string(original) {
		return nil
	}
	if err := os.WriteFile(path, original, 0o644); err != nil {
		return fmt.Errorf("failed to restore %s: %w", path, err)
	}
	return nil
}
