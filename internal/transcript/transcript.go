// Package transcript holds the ordered, date-grouped message log for the
// active room. It decides where date dividers go, which time labels stay
// visible and which side a message renders on, without touching any
// rendering surface.
package transcript

import "time"

type Kind int

const (
	KindMessage Kind = iota
	KindDate
	KindStatus
)

// Entry is one rendered line group of the transcript: a message, a date
// divider or a free-text status notice.
type Entry struct {
	Kind      Kind
	Sender    string
	Text      string
	Self      bool
	TimeLabel string
	ShowTime  bool
	Label     string
	At        time.Time
}

// Scroll is the scroll decision the append algorithm hands to the render
// sink.
type Scroll int

const (
	ScrollNone Scroll = iota
	ScrollIfNearBottom
	ScrollForce
)

// BottomSlack is how close to the bottom edge the pane must be for a peer
// message to still drag the view down.
const BottomSlack = 10

// ShouldScroll resolves a scroll decision against the pane's current
// distance from its bottom edge.
func ShouldScroll(s Scroll, distanceFromBottom int) bool {
	switch s {
	case ScrollForce:
		return true
	case ScrollIfNearBottom:
		return distanceFromBottom <= BottomSlack
	default:
		return false
	}
}

// Log is the message log of a single session. Reset on every room switch.
type Log struct {
	selfName string
	entries  []Entry
	lastDate string
	now      func() time.Time
}

func NewLog(selfName string) *Log {
	return &Log{selfName: selfName, now: time.Now}
}

// Reset clears the log and adopts a new session user name.
func (l *Log) Reset(selfName string) {
	l.selfName = selfName
	l.entries = nil
	l.lastDate = ""
}

func (l *Log) Entries() []Entry { return l.entries }

func (l *Log) Len() int { return len(l.entries) }

// Append adds a message to the log, inserting a date divider when the
// calendar date changed and collapsing same-minute bursts from the same
// side down to a single trailing time label. A zero timestamp means "now".
//
// Only the previous entry's label is ever hidden; the appended message's
// own label is always shown.
func (l *Log) Append(sender, text string, at time.Time) Scroll {
	if at.IsZero() {
		at = l.now()
	}

	if key := dateKey(at); key != l.lastDate {
		l.entries = append(l.entries, Entry{Kind: KindDate, Label: FormatDate(at), At: at})
		l.lastDate = key
	}

	self := sender == l.selfName
	label := FormatClock(at)

	if n := len(l.entries); n > 0 {
		prev := &l.entries[n-1]
		if prev.Kind == KindMessage && prev.Self == self && prev.TimeLabel == label {
			prev.ShowTime = false
		}
	}

	l.entries = append(l.entries, Entry{
		Kind:      KindMessage,
		Sender:    sender,
		Text:      text,
		Self:      self,
		TimeLabel: label,
		ShowTime:  true,
		At:        at,
	})

	if self {
		return ScrollForce
	}
	return ScrollIfNearBottom
}

// AppendStatus adds a presence notice. Status entries always drag the view
// to the bottom.
func (l *Log) AppendStatus(text string) Scroll {
	l.entries = append(l.entries, Entry{Kind: KindStatus, Label: text, At: l.now()})
	return ScrollForce
}
