package helpers

import (
	"context"
	"errors"
	"testing"
	"time"

	sniperrors "sjsage522/profitsniper/pkg/errors"

	"github.com/stretchr/testify/assert"
)

func TestParsePriceText(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1,980円", 1980},
		{"¥ 2,500", 2500},
		{"現在 12,345 円（税込）", 12345},
		{"500", 500},
	}
	for _, tc := range tests {
		got, err := ParsePriceText(tc.in)
		assert.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, err := ParsePriceText("価格未定")
	assert.True(t, sniperrors.IsType(err, sniperrors.ErrorTypeParsing))
}

func TestExtractAuctionID(t *testing.T) {
	assert.Equal(t, "x1234567890", ExtractAuctionID("https://page.auctions.yahoo.co.jp/jp/auction/x1234567890"))
	assert.Equal(t, "1098765432", ExtractAuctionID("https://page.auctions.yahoo.co.jp/jp/auction/1098765432/"))
	assert.Equal(t, "b1000000001", ExtractAuctionID("https://zenmarket.jp/en/auction.aspx?itemCode=b1000000001"))
	assert.Equal(t, "", ExtractAuctionID("https://auctions.yahoo.co.jp/search/search"))
	assert.Equal(t, "", ExtractAuctionID("::"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "リック", Truncate("リックオウエンス", 3))
	assert.Equal(t, "abc", Truncate("abc", 20))
}

func TestRetryPolicy(t *testing.T) {
	var slept []time.Duration
	policy := RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    3 * time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		},
	}

	calls := 0
	err := policy.Do(context.Background(), "flaky", func(ctx context.Context) error {
		calls++
		return sniperrors.NewNetwork("test", "timeout", nil)
	})
	assert.Error(t, err)
	assert.Equal(t, 4, calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second}, slept)

	calls = 0
	err = policy.Do(context.Background(), "fatal", func(ctx context.Context) error {
		calls++
		return errors.New("bad payload")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, calls)

	calls = 0
	err = policy.Do(context.Background(), "eventually", func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return sniperrors.NewNetwork("test", "reset", nil)
		}
		return nil
	})
	assert.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestSleepContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}
