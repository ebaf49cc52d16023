// Package main provides leviton-watch, a terminal monitor for My Leviton
// load-center devices.
//
// It logs in (or restores a saved session token), walks the account's
// residences to discover hubs, panels, breakers, and CT clamps, subscribes
// to all of them over the push channel, and prints every notification until
// interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"goleviton"
	"goleviton/channel"
	v1 "goleviton/wire/v1"
)

func main() {
	var (
		email    = flag.String("email", os.Getenv("LEVITON_EMAIL"), "My Leviton account email")
		password = flag.String("password", os.Getenv("LEVITON_PASSWORD"), "My Leviton account password")
		code     = flag.String("code", "", "Two-factor code, when the account requires one")
		token    = flag.String("token", os.Getenv("LEVITON_TOKEN"), "Saved session token (skips login)")
		userID   = flag.String("user", os.Getenv("LEVITON_USER_ID"), "User ID belonging to -token")
		timeout  = flag.Duration("timeout", 30*time.Second, "Per-request timeout")
		verbose  = flag.Bool("v", false, "Verbose output")
	)
	flag.Parse()

	client := goleviton.NewClient(goleviton.DefaultConfig())

	root := context.Background()
	switch {
	case *token != "" && *userID != "":
		client.RestoreSession(*token, *userID)
	case *email != "" && *password != "":
		ctx, cancel := context.WithTimeout(root, *timeout)
		_, err := client.Login(ctx, *email, *password, *code)
		cancel()
		if err != nil {
			fatalf("login: %v", err)
		}
	default:
		fatalf("need -email/-password or -token/-user")
	}

	subs, err := discover(root, client, *timeout, *verbose)
	if err != nil {
		fatalf("discover: %v", err)
	}
	if len(subs) == 0 {
		fatalf("no devices found on this account")
	}

	ch := channel.New(client, channel.DefaultOptions())
	ch.OnNotification(func(n v1.Notification) {
		fmt.Printf("%s %s %s %s\n",
			time.Now().Format(time.RFC3339), n.ModelName, n.ModelID, n.Data)
	})
	ch.OnDisconnect(func() {
		fmt.Fprintln(os.Stderr, "connection lost, reconnecting")
	})

	ctx, cancel := context.WithTimeout(root, *timeout)
	err = ch.Connect(ctx)
	cancel()
	if err != nil {
		fatalf("connect: %v", err)
	}
	defer ch.Disconnect()

	for _, s := range subs {
		ctx, cancel := context.WithTimeout(root, *timeout)
		err := ch.Subscribe(ctx, s.Kind, s.ID)
		cancel()
		if err != nil {
			fatalf("subscribe %s/%s: %v", s.Kind, s.ID, err)
		}
	}

	if *verbose {
		fmt.Printf("watching %d devices (connection %s)\n", len(subs), ch.ConnectionID())
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

// discover walks permission -> residence -> hub/panel -> breaker/CT and
// returns one subscription key per device.
func discover(root context.Context, client *goleviton.Client, timeout time.Duration, verbose bool) ([]channel.SubscriptionKey, error) {
	ctx, cancel := context.WithTimeout(root, timeout)
	defer cancel()

	perms, err := client.Permissions(ctx)
	if err != nil {
		return nil, fmt.Errorf("permissions: %w", err)
	}

	var residences []goleviton.Residence
	for _, p := range perms {
		switch {
		case p.ResidentialAccountID != nil:
			rs, err := client.Residences(ctx, *p.ResidentialAccountID)
			if err != nil {
				return nil, fmt.Errorf("account %d residences: %w", *p.ResidentialAccountID, err)
			}
			residences = append(residences, rs...)
		case p.ResidenceID != nil:
			r, err := client.ResidenceFromPermission(ctx, p.ID)
			if err != nil {
				return nil, fmt.Errorf("permission %d residence: %w", p.ID, err)
			}
			residences = append(residences, r)
		}
	}

	var subs []channel.SubscriptionKey
	for _, res := range residences {
		if verbose {
			fmt.Printf("residence %d %q\n", res.ID, res.Name)
		}

		whems, err := client.Whems(ctx, res.ID)
		if err != nil {
			return nil, fmt.Errorf("residence %d hubs: %w", res.ID, err)
		}
		for _, w := range whems {
			subs = append(subs, channel.SubscriptionKey{Kind: v1.KindHub, ID: v1.ModelID(w.ID)})

			breakers, err := client.WhemBreakers(ctx, w.ID)
			if err != nil {
				return nil, fmt.Errorf("hub %s breakers: %w", w.ID, err)
			}
			for _, b := range breakers {
				subs = append(subs, channel.SubscriptionKey{Kind: v1.KindBreaker, ID: v1.ModelID(b.ID)})
			}

			cts, err := client.CTs(ctx, w.ID)
			if err != nil {
				return nil, fmt.Errorf("hub %s cts: %w", w.ID, err)
			}
			for _, ct := range cts {
				subs = append(subs, channel.SubscriptionKey{
					Kind: v1.KindCT,
					ID:   v1.ModelID(strconv.FormatInt(ct.ID, 10)),
				})
			}
		}

		panels, err := client.Panels(ctx, res.ID)
		if err != nil {
			return nil, fmt.Errorf("residence %d panels: %w", res.ID, err)
		}
		for _, p := range panels {
			subs = append(subs, channel.SubscriptionKey{Kind: v1.KindPanel, ID: v1.ModelID(p.ID)})
			for _, b := range p.Breakers {
				subs = append(subs, channel.SubscriptionKey{Kind: v1.KindBreaker, ID: v1.ModelID(b.ID)})
			}
		}
	}
	return subs, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "leviton-watch: "+format+"\n", args...)
	os.Exit(1)
}
