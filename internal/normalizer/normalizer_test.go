package normalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostfolio-ai/guest-knowledge/internal/model"
)

var testOperatorDomains = []string{"stayhost.example"}

func msgFrom(from, body string) model.InboundMessage {
	return model.InboundMessage{
		ID:        "m1",
		From:      from,
		Date:      "2024-05-01T10:00:00Z",
		BodyPlain: body,
	}
}

func TestRegistryResolveOrder(t *testing.T) {
	reg := NewRegistry(testOperatorDomains)

	tests := []struct {
		name     string
		from     string
		platform string
	}{
		{"vrbo", "no-reply@vrbo.com", PlatformVRBO},
		{"vrbo subdomain", "Alaina Capasso <messages@messages.homeaway.com>", PlatformVRBO},
		{"airbnb", "automated@airbnb.com", PlatformAirbnb},
		{"airbnb reply subdomain", "guest-abc123@reply.airbnb.com", PlatformAirbnb},
		{"booking", "noreply@mchat.booking.com", PlatformBooking},
		{"unknown sender falls through to direct", "jane.doe@gmail.com", PlatformDirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := reg.Resolve(msgFrom(tt.from, "hello"))
			require.NotNil(t, n)
			assert.Equal(t, tt.platform, n.Platform())
		})
	}
}

func TestRegistryResolveOperatorMailYieldsNothing(t *testing.T) {
	reg := NewRegistry(testOperatorDomains)

	// Host-to-host traffic from the operator's own domain carries no guest
	// content and must not match any normalizer, including direct.
	assert.Nil(t, reg.Resolve(msgFrom("alerts@stayhost.example", "cleaning scheduled")))
	assert.Nil(t, reg.Resolve(msgFrom("ops@mail.stayhost.example", "sensor offline")))
}

func TestRegistryResolveMalformedSender(t *testing.T) {
	reg := NewRegistry(testOperatorDomains)
	assert.Nil(t, reg.Resolve(msgFrom("not-an-address", "hi")))
}

func TestSenderDomain(t *testing.T) {
	assert.Equal(t, "vrbo.com", senderDomain("no-reply@vrbo.com"))
	assert.Equal(t, "vrbo.com", senderDomain("Vrbo <no-reply@VRBO.com>"))
	assert.Equal(t, "messages.homeaway.com", senderDomain("A B <x@messages.homeaway.com>"))
	assert.Equal(t, "", senderDomain("nonsense"))
	assert.Equal(t, "", senderDomain("dangling@"))
}

func TestVRBOExtractGuestMessage(t *testing.T) {
	body := "Vrbo: Alaina Capasso has replied to your message\n\nHi! I was wondering if I can change dates\n\n-------We're here to help..."
	msg := msgFrom("no-reply@vrbo.com", body)

	guest := vrboNormalizer{}.ExtractGuestMessage(msg)
	require.NotNil(t, guest)
	assert.Equal(t, "Hi! I was wondering if I can change dates", guest.BodyPlain)
	assert.NotContains(t, guest.BodyPlain, "We're here to help")
}

func TestVRBOExtractGuestMessageMultiline(t *testing.T) {
	body := "Vrbo: Sam has sent you a message\n\nHi there,\nIs the pool heated in March?\nThanks, Sam\n\n____\nWe're here to help. Visit vrbo.com/help"
	guest := vrboNormalizer{}.ExtractGuestMessage(msgFrom("messages@homeaway.com", body))
	require.NotNil(t, guest)
	assert.Equal(t, "Hi there,\nIs the pool heated in March?\nThanks, Sam", guest.BodyPlain)
}

func TestVRBOExtractGuestMessageNoContent(t *testing.T) {
	body := "Vrbo: Alaina Capasso has replied to your message\n\n-------We're here to help..."
	assert.Nil(t, vrboNormalizer{}.ExtractGuestMessage(msgFrom("no-reply@vrbo.com", body)))
}

func TestVRBOExtractPropertyID(t *testing.T) {
	n := vrboNormalizer{}
	assert.Equal(t, "4353572", n.ExtractPropertyID("", "Vrbo #4353572"))
	assert.Equal(t, "4353572", n.ExtractPropertyID("", "Re: Vrbo # 4353572 booking question"))
	assert.Equal(t, "99", n.ExtractPropertyID("details for Property #99", "no marker here"))
	assert.Equal(t, "", n.ExtractPropertyID("plain body", "plain subject"))
}

func TestVRBOExtractThreadID(t *testing.T) {
	n := vrboNormalizer{}
	assert.Equal(t, "abc-123", n.ExtractThreadID("Conversation ID: abc-123", ""))
	assert.Equal(t, "", n.ExtractThreadID("no id anywhere", "Vrbo #4353572"))
}

func TestAirbnbExtractGuestMessage(t *testing.T) {
	body := "Marc sent you a message\n\nCan we check in around 11pm? Our flight lands late.\n\nReply\nhttps://www.airbnb.com/messaging/thread/773311\nAirbnb, Inc."
	guest := airbnbNormalizer{}.ExtractGuestMessage(msgFrom("express@airbnb.com", body))
	require.NotNil(t, guest)
	assert.Equal(t, "Can we check in around 11pm? Our flight lands late.", guest.BodyPlain)
}

func TestAirbnbExtractThreadAndListing(t *testing.T) {
	n := airbnbNormalizer{}
	body := "see https://www.airbnb.com/messaging/thread/773311 and https://www.airbnb.com/rooms/5512"
	assert.Equal(t, "773311", n.ExtractThreadID(body, ""))
	assert.Equal(t, "5512", n.ExtractPropertyID(body, ""))
}

func TestBookingExtractGuestMessageStripsRoleLabels(t *testing.T) {
	body := "You have a new message from your guest\n\nGuest: Is parking included?\nYou: Yes, one spot.\nGuest: Perfect, and is it covered?\n\n----\nThis is an automated message from Booking.com"
	guest := bookingNormalizer{}.ExtractGuestMessage(msgFrom("noreply@booking.com", body))
	require.NotNil(t, guest)
	assert.Equal(t, "Is parking included?\nPerfect, and is it covered?", guest.BodyPlain)
}

func TestDirectExtractGuestMessageCutsQuotedReply(t *testing.T) {
	body := "Hi, do you allow dogs?\n\nOn Tue, Apr 30, 2024 John Host wrote:\n> Welcome! Let me know if you have questions."
	guest := directNormalizer{}.ExtractGuestMessage(msgFrom("jane.doe@gmail.com", body))
	require.NotNil(t, guest)
	assert.Equal(t, "Hi, do you allow dogs?", guest.BodyPlain)
}

func TestDirectExtractGuestMessageQuotedOnly(t *testing.T) {
	body := "> thanks for the info\n> see you friday"
	assert.Nil(t, directNormalizer{}.ExtractGuestMessage(msgFrom("jane.doe@gmail.com", body)))
}

func TestExtractFallsBackToHTMLBody(t *testing.T) {
	msg := model.InboundMessage{
		ID:       "m1",
		From:     "jane.doe@gmail.com",
		Date:     "2024-05-01T10:00:00Z",
		BodyHTML: "is the wifi fast enough for video calls?",
	}
	guest := directNormalizer{}.ExtractGuestMessage(msg)
	require.NotNil(t, guest)
	assert.Equal(t, "is the wifi fast enough for video calls?", guest.BodyPlain)
}
