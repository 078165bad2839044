package decodersim

import (
	"testing"

	"github.com/satband/satcore/internal/chain"
	"github.com/satband/satcore/internal/deviceimage"
	"github.com/satband/satcore/internal/frame"
	"github.com/satband/satcore/internal/link"
	"github.com/satband/satcore/internal/secrets"
	"github.com/satband/satcore/internal/subscription"
)

func TestEmergencyChannelSubscribedFromConstruction(t *testing.T) {
	c := chain.New()
	bundle, err := secrets.Generate([]uint32{1})
	if err != nil {
		t.Fatal(err)
	}

	artifacts, err := deviceimage.BuildArtifacts(c, bundle, 9)
	if err != nil {
		t.Fatal(err)
	}

	d, err := New(c, bundle.Public, bundle.SystemSecret, 9, artifacts.Emergency, nil)
	if err != nil {
		t.Fatal(err)
	}

	enc := frame.NewEncoder(c, 0, mustRoots(t, bundle, 0).Forward, mustRoots(t, bundle, 0).Backward, bundle.Private)
	raw, err := enc.Encode([]byte("emergency broadcast"), 12345)
	if err != nil {
		t.Fatal(err)
	}

	var got []byte
	d.HandleLinkMessage(link.PayloadTypeFrameStream, raw, func(f []byte) { got = f })
	if got == nil {
		t.Fatalf("expected channel 0 frame to decode without an explicit subscription delivery")
	}
}

func TestSubscriptionDeliveryThenFrame(t *testing.T) {
	c := chain.New()
	bundle, err := secrets.Generate([]uint32{1})
	if err != nil {
		t.Fatal(err)
	}
	roots := mustRoots(t, bundle, 1)

	sub, err := subscription.Build(c, 1, 0, 1000, roots.Forward, roots.Backward, bundle.SystemSecret, 3)
	if err != nil {
		t.Fatal(err)
	}

	artifacts, err := deviceimage.BuildArtifacts(c, bundle, 3)
	if err != nil {
		t.Fatal(err)
	}
	d, err := New(c, bundle.Public, bundle.SystemSecret, 3, artifacts.Emergency, nil)
	if err != nil {
		t.Fatal(err)
	}

	d.HandleLinkMessage(link.PayloadTypeSubscriptionDelivery, sub, nil)

	enc := frame.NewEncoder(c, 1, roots.Forward, roots.Backward, bundle.Private)
	raw, err := enc.Encode([]byte("hello"), 500)
	if err != nil {
		t.Fatal(err)
	}

	var got []byte
	d.HandleLinkMessage(link.PayloadTypeFrameStream, raw, func(f []byte) { got = f })
	if got == nil {
		t.Fatalf("expected frame to decode after subscription delivery")
	}
}

func mustRoots(t *testing.T, b *secrets.Bundle, channel uint32) secrets.ChannelRoots {
	t.Helper()
	r, err := b.ChannelRoots(channel)
	if err != nil {
		t.Fatal(err)
	}
	return r
}
