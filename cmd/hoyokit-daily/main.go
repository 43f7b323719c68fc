package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"hoyokit"
)

// hoyokit-daily claims the daily check-in reward for one account.
//
// Configuration comes from the environment (a .env file is loaded when
// present):
//
//	HOYOKIT_REGION    "os" or "cn"
//	HOYOKIT_GAME      genshin | honkai3rd | hkrpg | nap
//	HOYOKIT_COOKIES   cookie header string with ltoken/ltuid or equivalents
//	HOYOKIT_PLAYER_ID in-game uid (mainland check-in requires it)

func main() {
	noColor := flag.Bool("no-color", false, "disable colored output")
	timeout := flag.Duration("timeout", 30*time.Second, "overall deadline")
	flag.Parse()

	_ = godotenv.Load()

	logger := hoyokit.NewColorLogger(!*noColor)

	region := hoyokit.Region(envOr("HOYOKIT_REGION", "os"))
	game := hoyokit.Game(envOr("HOYOKIT_GAME", "genshin"))
	cookies := os.Getenv("HOYOKIT_COOKIES")
	if cookies == "" {
		log.Fatal("HOYOKIT_COOKIES is required")
	}

	opts := []hoyokit.Option{
		hoyokit.WithGame(game),
		hoyokit.WithCookieString(cookies),
		hoyokit.WithLogger(logger),
	}
	if raw := os.Getenv("HOYOKIT_PLAYER_ID"); raw != "" {
		playerID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			log.Fatalf("HOYOKIT_PLAYER_ID must be numeric: %v", err)
		}
		opts = append(opts, hoyokit.WithPlayerID(playerID))
	}

	client, err := hoyokit.NewClient(region, opts...)
	if err != nil {
		log.Fatalf("client setup failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	info, err := client.GetRewardInfo(ctx)
	if err != nil {
		logger.Error("reward lookup failed: " + err.Error())
		os.Exit(1)
	}
	if info.SignedIn {
		logger.Info("already signed in today, " + strconv.Itoa(info.ClaimedRewards) + " rewards this month")
		return
	}

	reward, err := client.ClaimDailyReward(ctx, "", "")
	switch {
	case err == nil:
		logger.Info("claimed " + strconv.Itoa(reward.Amount) + "x " + reward.Name)
	case errors.Is(err, hoyokit.ErrAlreadyClaimed):
		logger.Warn("reward was already claimed")
	case errors.Is(err, hoyokit.ErrNeedChallenge):
		logger.Error("claim blocked by a geetest challenge; solve it and retry with x-rpc-challenge/validate")
		os.Exit(1)
	default:
		logger.Error("claim failed: " + err.Error())
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
