package board

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/store"
)

// numberWidth is the minimum digit count of a story number.
const numberWidth = 3

// FormatNumber renders a story number such as STORY-007.
func FormatNumber(prefix string, n int) string {
	return fmt.Sprintf("%s-%0*d", prefix, numberWidth, n)
}

// ParseNumber splits a story number into prefix and counter.
func ParseNumber(number string) (string, int, bool) {
	i := strings.LastIndexByte(number, '-')
	if i <= 0 || i == len(number)-1 {
		return "", 0, false
	}
	n, err := strconv.Atoi(number[i+1:])
	if err != nil || n < 0 {
		return "", 0, false
	}
	return number[:i], n, true
}

// NextNumber returns the number following current: STORY-007 gives STORY-008.
func NextNumber(current string) (string, error) {
	prefix, n, ok := ParseNumber(current)
	if !ok {
		return "", fmt.Errorf("malformed story number %q", current)
	}
	return FormatNumber(prefix, n+1), nil
}

// storyPrefix returns the user's saved prefix or the board default.
func (b *Board) storyPrefix(ctx context.Context) (string, error) {
	us, err := b.store.GetUserSettings(ctx, b.userID)
	if errors.Is(err, store.ErrNotFound) {
		return b.prefix, nil
	}
	if err != nil {
		return "", err
	}
	if us.StoryPrefix == "" {
		return b.prefix, nil
	}
	return us.StoryPrefix, nil
}

// createNumbered inserts story under the next free number. A collision with
// a concurrent writer re-reads the current maximum and retries with a
// growing, jittered offset.
func (b *Board) createNumbered(ctx context.Context, story model.Story) (model.Story, error) {
	prefix, err := b.storyPrefix(ctx)
	if err != nil {
		return model.Story{}, err
	}

	offset := 1
	for attempt := 1; attempt <= b.maxAttempts; attempt++ {
		highest, err := b.store.MaxStoryNumber(ctx, b.userID, prefix)
		if err != nil {
			return model.Story{}, err
		}

		story.Number = FormatNumber(prefix, highest+offset)
		created, err := b.store.CreateStory(ctx, story)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, store.ErrDuplicate) {
			return model.Story{}, err
		}

		b.log.Sugar().Debugw("story number taken, retrying", "number", story.Number, "attempt", attempt)
		offset += 1 + b.intn(attempt+1)
	}

	return model.Story{}, ErrNumberCollision
}
