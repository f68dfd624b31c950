// Package htmlclean converts Teams rich-text message bodies into plain
// text suitable for review, surfacing the media references embedded in the
// markup. Cleaning is regex based: export HTML is machine generated and
// shallow, and a full parser would reject exactly the malformed fragments
// this package must survive.
package htmlclean

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/timestamp"
	"github.com/chiabertolotti/teamsartifacts/pkg/ingest/types"
)

// Media is one attachment reference surfaced while cleaning. The caller
// attaches conversation and message identity.
type Media struct {
	Name string
	Type string
	URL  string
}

// NameLookup resolves a participant id to a display name, used to
// attribute quoted reply authors. May be nil.
type NameLookup func(id string) (string, bool)

type Cleaner struct {
	lookup NameLookup
}

func NewCleaner(lookup NameLookup) *Cleaner {
	return &Cleaner{lookup: lookup}
}

var (
	reBareLinkP = regexp.MustCompile(`(?i)^\s*<p>?\s*<a [^>]*href="([^"]+)"[^>]*>[^<]+</a>\s*</p>?\s*$`)
	reBareLink  = regexp.MustCompile(`(?i)^\s*<a [^>]*href="([^"]+)"[^>]*>[^<]+</a>\s*$`)

	reReplyQuote   = regexp.MustCompile(`(?is)<blockquote[^>]*?(?:itemscope[^>]*?)?itemtype="http://schema\.skype\.com/Reply"[^>]*>(.*?)</blockquote>`)
	reForwardQuote = regexp.MustCompile(`(?is)<blockquote[^>]*?(?:itemscope[^>]*?)?itemtype="http://schema\.skype\.com/Forward"[^>]*>(.*?)</blockquote>`)
	reStrong       = regexp.MustCompile(`(?i)<strong[^>]*>([^<]+)</strong>`)
	reSpanItemID   = regexp.MustCompile(`(?i)<span[^>]*itemid\s*=\s*"([^"]+)"`)

	reAnchorHref  = regexp.MustCompile(`(?i)<a [^>]*href="([^"]+)"[^>]*>`)
	reAnchorWhole = regexp.MustCompile(`(?i)<a [^>]*href="([^"]+)"[^>]*>[^<]*</a>`)
	reCloseP      = regexp.MustCompile(`(?i)</p\s*>`)
	reTag         = regexp.MustCompile(`<[^>]+>`)
	reEscQuote    = regexp.MustCompile(`\\(['"])`)
	reNarrowSpace = regexp.MustCompile("[   ]")

	reImgTag   = regexp.MustCompile(`(?i)<img [^>]*>`)
	reEmojiTag = regexp.MustCompile(`(?i)<(?:emoji|img)\b[^>]*>`)
	reItemType = regexp.MustCompile(`(?i)itemtype\s*=\s*"([^"]+)"`)
	reSrcAttr  = regexp.MustCompile(`(?i)\bsrc\s*=\s*"([^"]+)"`)
	reAltAttr  = regexp.MustCompile(`(?i)\balt\s*=\s*"([^"]+)"`)
)

// Clean strips the markup from a rich-text body, returning plain text and
// the media references found in it. Cleaning never fails: any fragment the
// rules cannot handle flows through untouched, and an internal panic
// degrades to returning the raw input.
func (c *Cleaner) Clean(htmlStr string, props types.Raw) (text string, media []Media) {
	defer func() {
		if recover() != nil {
			text = htmlStr
			media = nil
		}
	}()

	media = append(extractInlineMedia(htmlStr), BlurHashMedia(props)...)
	text = c.clean(htmlStr, props)
	return text, media
}

func (c *Cleaner) clean(htmlStr string, props types.Raw) string {
	if htmlStr == "" {
		return ""
	}

	// A message that is nothing but one anchor collapses to its target.
	if m := reBareLinkP.FindStringSubmatch(htmlStr); m != nil {
		return m[1]
	}
	if m := reBareLink.FindStringSubmatch(htmlStr); m != nil {
		return m[1]
	}

	if loc := reReplyQuote.FindStringSubmatchIndex(htmlStr); loc != nil {
		return c.cleanReply(htmlStr, loc)
	}
	if loc := reForwardQuote.FindStringSubmatchIndex(htmlStr); loc != nil {
		return c.cleanForward(htmlStr, loc, props)
	}

	return stripMarkup(htmlStr)
}

// cleanReply renders a quoted reply as an attributed lead-in line followed
// by the quoted body and the new text.
func (c *Cleaner) cleanReply(htmlStr string, loc []int) string {
	quotedHTML := htmlStr[loc[2]:loc[3]]
	before := strings.TrimSpace(htmlStr[:loc[0]])
	after := htmlStr[loc[1]:]

	var sender string
	if m := reStrong.FindStringSubmatch(quotedHTML); m != nil {
		sender = strings.TrimSpace(m[1])
	}

	quoted := c.clean(reStrong.ReplaceAllString(quotedHTML, ""), nil)
	reply := c.clean(after, nil)

	var lead string
	switch {
	case sender != "":
		lead = fmt.Sprintf("In reply to %s:", sender)
		if m := reSpanItemID.FindStringSubmatch(quotedHTML); m != nil && c.lookup != nil {
			if name, ok := c.lookup(m[1]); ok {
				lead = fmt.Sprintf("In reply to %s (%s):", sender, name)
			}
		}
		lead = boldText(lead)
	default:
		lead = boldText("In reply to message") + ":"
	}

	result := lead + " " + strings.TrimSpace(quoted) + "\n\n" + strings.TrimSpace(reply)
	if before != "" {
		result = strings.TrimSpace(c.clean(before, nil)) + "\n\n" + result
	}
	return strings.TrimSpace(result)
}

// cleanForward renders a forwarded block with its original sender and time
// when the message properties carry them.
func (c *Cleaner) cleanForward(htmlStr string, loc []int, props types.Raw) string {
	quoted := c.clean(htmlStr[loc[2]:loc[3]], nil)
	before := strings.TrimSpace(htmlStr[:loc[0]])
	reply := c.clean(htmlStr[loc[1]:], nil)

	var info string
	if ctx := props.Map("originalMessageContext"); ctx != nil {
		sender := ctx.Str("sender")
		when := ""
		if raw, ok := ctx["clientArrivalTime"]; ok {
			when = timestamp.Display(raw)
		}
		if sender != "" || when != "" {
			info = strings.TrimSpace("Original: "+sender+" "+when) + "\n"
		}
	}

	result := info + boldText("Forwarded message:") + " " + strings.TrimSpace(quoted)
	if before != "" {
		result = strings.TrimSpace(c.clean(before, nil)) + "\n\n" + result
	}
	if strings.TrimSpace(reply) != "" {
		result += "\n\n" + strings.TrimSpace(reply)
	}
	return strings.TrimSpace(result)
}

// stripMarkup flattens arbitrary markup to text. Anchor targets replace
// their anchors inline and any not already visible are appended, so no URL
// is lost to tag stripping.
func stripMarkup(htmlStr string) string {
	hrefs := make([]string, 0, 4)
	for _, m := range reAnchorHref.FindAllStringSubmatch(htmlStr, -1) {
		hrefs = append(hrefs, m[1])
	}

	s := reAnchorWhole.ReplaceAllString(htmlStr, "$1")
	s = reEmojiTag.ReplaceAllStringFunc(s, emojiAltText)
	s = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n").Replace(s)
	s = reCloseP.ReplaceAllString(s, "\n")
	s = reTag.ReplaceAllString(s, "")

	s = html.UnescapeString(s)
	s = reEscQuote.ReplaceAllString(s, "$1")

	s = strings.NewReplacer(" ", " ", "&nbsp;", " ", `\xa0`, " ").Replace(s)
	s = reNarrowSpace.ReplaceAllString(s, " ")
	s = strings.NewReplacer(`\r\n`, "\n", "\r\n", "\n", `\n`, "\n").Replace(s)
	s = strings.TrimSpace(norm.NFC.String(s))

	var missing []string
	for _, h := range hrefs {
		if !strings.Contains(s, h) {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		if s == "" {
			return strings.Join(missing, "\n")
		}
		return s + "\n" + strings.Join(missing, "\n")
	}
	return s
}

// emojiAltText replaces an emoji tag with the character from its alt
// attribute. Attachment-style images keep their name out of the text; only
// emoji markup collapses inline.
func emojiAltText(tag string) string {
	if !strings.HasPrefix(strings.ToLower(tag), "<emoji") {
		itemType := ""
		if m := reItemType.FindStringSubmatch(tag); m != nil {
			itemType = strings.ToLower(m[1])
		}
		if !strings.Contains(itemType, "emoji") && !strings.Contains(itemType, "emoticon") {
			return tag
		}
	}
	if m := reAltAttr.FindStringSubmatch(tag); m != nil {
		return m[1]
	}
	return ""
}

// extractInlineMedia pulls image style attachments out of the markup.
// Emoji images are not attachments; their alt text survives tag stripping
// separately.
func extractInlineMedia(htmlStr string) []Media {
	if htmlStr == "" {
		return nil
	}
	var out []Media
	for _, tag := range reImgTag.FindAllString(htmlStr, -1) {
		itemType := ""
		if m := reItemType.FindStringSubmatch(tag); m != nil {
			itemType = m[1]
		}
		mediaType := ""
		switch {
		case strings.Contains(strings.ToLower(itemType), "amsimage"):
			mediaType = types.AttachmentTypeImage
		case strings.Contains(strings.ToLower(itemType), "giphy"),
			strings.Contains(strings.ToLower(itemType), "gif"):
			mediaType = types.AttachmentTypeGIF
		case strings.Contains(strings.ToLower(itemType), "sticker"):
			mediaType = types.AttachmentTypeSticker
		default:
			continue
		}

		m := Media{Type: mediaType}
		if s := reSrcAttr.FindStringSubmatch(tag); s != nil {
			m.URL = s[1]
		}
		if a := reAltAttr.FindStringSubmatch(tag); a != nil {
			m.Name = a[1]
		}
		out = append(out, m)
	}
	return out
}

// BlurHashMedia surfaces image placeholders recorded only in the message
// properties, which happens when the export elided the binary content.
func BlurHashMedia(props types.Raw) []Media {
	if props == nil {
		return nil
	}
	raw, ok := props["blurHash"]
	if !ok {
		return nil
	}

	var out []Media
	wrapped := types.Raw{"blurHash": raw}
	for _, entry := range wrapped.ObjectList("blurHash") {
		out = append(out, Media{
			Type: types.AttachmentTypeBlurHash,
			Name: entry.FirstStr("fileName", "title"),
			URL:  entry.FirstStr("url", "itemid"),
		})
	}
	if len(out) == 0 {
		// A non-empty scalar or list of scalars still marks an image.
		switch v := raw.(type) {
		case []interface{}:
			for range v {
				out = append(out, Media{Type: types.AttachmentTypeBlurHash})
			}
		case string:
			if v != "" && v != "[]" {
				out = append(out, Media{Type: types.AttachmentTypeBlurHash})
			}
		}
	}
	return out
}

// boldText maps ASCII letters and digits onto the mathematical bold code
// points so lead-in lines stand out in plain-text viewers.
func boldText(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 4)
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(0x1D400 + (r - 'A'))
		case r >= 'a' && r <= 'z':
			b.WriteRune(0x1D41A + (r - 'a'))
		case r >= '0' && r <= '9':
			b.WriteRune(0x1D7CE + (r - '0'))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
