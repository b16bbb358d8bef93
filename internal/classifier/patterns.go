package classifier

import "regexp"

// Freeswitch log format contract.
//
// Every call-scoped line is framed as
//
//	<channel-uuid> <yyyy-mm-dd> <hh:mm:ss.ffffff> <body>
//
// and the body is matched against the table below, most specific first,
// first match wins:
//
//	pattern                                   kind              fields
//	------------------------------------------------------------------------
//	New Channel                               CHANNEL_CREATE    -
//	has been answered                         CHANNEL_ANSWER    -
//	Hangup ... [CS_*] [CAUSE]                 CHANNEL_HANGUP    cause
//	Close Channel ... [CS_DESTROY]            CHANNEL_DESTROY   -
//	sending invite call-id                    INVITE_OUT        direction=outbound
//	receiving invite from <ip>:<port>         INVITE_IN         direction=inbound, client_ip
//	Original read codec set to <codec>        CODEC             codec
//	Callstate Change <A -> B>                 CALLSTATE_CHANGE  callstate, state_before, state_after
//	State Change <A -> B>                     STATE_CHANGE      state_before, state_after
//	Command Execute ... playback(<file>)      PLAYBACK          file
//	RTP RECV DTMF <digit>:<duration>          DTMF              digit
//	(anything else)                           OTHER             best-effort only
//
// Independently of the kind match, these values are extracted from any
// line that carries them: cpu_idle (idle CPU percentage), caller
// (sofia/external calling party number), client_ip.

// pattern maps a body regexp to an event kind. Capture groups are named by
// fields, in order. A pattern with required=true that matches but yields an
// empty required capture downgrades the line to KindOther, keeping the
// partial fields.
type pattern struct {
	kind     string
	re       *regexp.Regexp
	fields   []string
	required bool
}

var bodyPatterns = []pattern{
	{kind: "CHANNEL_CREATE", re: regexp.MustCompile(`(?i)New Channel`)},
	{kind: "CHANNEL_ANSWER", re: regexp.MustCompile(`(?i)has been answered`)},
	{
		kind:     "CHANNEL_HANGUP",
		re:       regexp.MustCompile(`(?i)Hangup \S+ \[CS_[A-Z_]+\](?: \[([A-Z0-9_]+)\])?`),
		fields:   []string{"cause"},
		required: true,
	},
	{kind: "CHANNEL_DESTROY", re: regexp.MustCompile(`(?i)Close Channel`)},
	{kind: "INVITE_OUT", re: regexp.MustCompile(`(?i)sending invite call-id`)},
	{
		kind:   "INVITE_IN",
		re:     regexp.MustCompile(`(?i)receiving invite from (.+?):`),
		fields: []string{"client_ip"},
	},
	{
		kind:     "CODEC",
		re:       regexp.MustCompile(`(?i)Original read codec set to (.*)$`),
		fields:   []string{"codec"},
		required: true,
	},
	{
		kind:     "CALLSTATE_CHANGE",
		re:       regexp.MustCompile(`(?i)Callstate Change (.+?)$`),
		fields:   []string{"callstate"},
		required: true,
	},
	{
		kind:     "STATE_CHANGE",
		re:       regexp.MustCompile(`(?i)State Change (.+?) -> (.+?)$`),
		fields:   []string{"state_before", "state_after"},
		required: true,
	},
	{
		kind:     "PLAYBACK",
		re:       regexp.MustCompile(`(?i)Command Execute .* playback\((?:\{.*\})?(.*)\)`),
		fields:   []string{"file"},
		required: true,
	},
	{
		kind:     "DTMF",
		re:       regexp.MustCompile(`RTP RECV DTMF (.+?):`),
		fields:   []string{"digit"},
		required: true,
	},
}

// stateArrowRe splits "A -> B" callstate values.
var stateArrowRe = regexp.MustCompile(`^(.+?) -> (.+)$`)

// Opportunistic field extractors, applied to every classified line.
var (
	cpuIdleRe  = regexp.MustCompile(` ([0-9.]+?)% `)
	callerRe   = regexp.MustCompile(`sofia/external/(.+?)\)? `)
	clientIPRe = regexp.MustCompile(`(?i)receiving invite from (.+?):`)
)
