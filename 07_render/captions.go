package render

import (
	"fmt"
	"strings"

	"github.com/JeffreyLin1/peetleAI/types"
)

// wordFilter builds one drawtext stage for a single caption word: oversized
// pop at onset settling to the base size, with a short alpha fade at both
// edges of the word's window.
func (b *Builder) wordFilter(tok types.WordToken) string {
	c := b.cfg.Captions
	start, end := tok.Start, tok.End

	fontsize := fmt.Sprintf("if(lt(t-%.3f,%.3f),%d*(%.2f-%.2f*(t-%.3f)/%.3f),%d)",
		start, c.PopSec, c.FontSize, c.PopScale, c.PopScale-1, start, c.PopSec, c.FontSize)
	alpha := fmt.Sprintf("if(lt(t,%.3f),(t-%.3f)/%.3f,if(gt(t,%.3f),(%.3f-t)/%.3f,1))",
		start+c.FadeSec, start, c.FadeSec, end-c.FadeSec, end, c.FadeSec)

	var font string
	if c.FontFile != "" {
		font = fmt.Sprintf("fontfile=%s", c.FontFile)
	} else {
		font = fmt.Sprintf("font=%s", c.Font)
	}

	return fmt.Sprintf("drawtext=text='%s':%s:fontsize='%s':fontcolor=%s:borderw=%d:bordercolor=%s:x=(w-text_w)/2:y=h-%d:alpha='%s':enable='between(t,%.3f,%.3f)'",
		escapeDrawtext(strings.ToUpper(tok.Text)), font, fontsize, c.FontColor, c.OutlineWidth, c.OutlineColor, c.MarginBottom, alpha, start, end)
}

// buildASS renders a whole-line subtitle file for the fallback caption mode:
// one event per speaking interval, styled to match the word captions.
func (b *Builder) buildASS(intervals []types.TimelineInterval) string {
	c := b.cfg.Captions
	var sb strings.Builder

	sb.WriteString("[Script Info]\n")
	sb.WriteString("ScriptType: v4.00+\n")
	fmt.Fprintf(&sb, "PlayResX: %d\n", b.cfg.Render.Width)
	fmt.Fprintf(&sb, "PlayResY: %d\n", b.cfg.Render.Height)
	sb.WriteString("WrapStyle: 0\n\n")

	sb.WriteString("[V4+ Styles]\n")
	sb.WriteString("Format: Name, Fontname, Fontsize, PrimaryColour, OutlineColour, BackColour, Bold, Outline, Shadow, Alignment, MarginL, MarginR, MarginV\n")
	fmt.Fprintf(&sb, "Style: Default,%s,%d,%s,%s,&H00000000,1,%d,0,2,60,60,%d\n\n",
		c.Font, c.FontSize, toASSColor(c.FontColor), toASSColor(c.OutlineColor), c.OutlineWidth, c.MarginBottom)

	sb.WriteString("[Events]\n")
	sb.WriteString("Format: Layer, Start, End, Style, Name, Text\n")
	for _, iv := range intervals {
		text := strings.ReplaceAll(iv.Text, "\n", " ")
		if text == "" {
			continue
		}
		fmt.Fprintf(&sb, "Dialogue: 0,%s,%s,Default,%s,%s\n",
			formatASSTime(iv.Start), formatASSTime(iv.End), iv.Speaker, text)
	}
	return sb.String()
}

// toASSColor converts "#RRGGBB" to ASS &H00BBGGRR form. Unparseable input
// falls back to opaque white.
func toASSColor(hex string) string {
	s := strings.TrimPrefix(hex, "#")
	if len(s) != 6 {
		return "&H00FFFFFF"
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return "&H00FFFFFF"
	}
	return fmt.Sprintf("&H00%02X%02X%02X", b, g, r)
}

// formatASSTime renders seconds as the H:MM:SS.CC timestamps ASS requires.
func formatASSTime(sec float64) string {
	if sec < 0 {
		sec = 0
	}
	cs := int(sec*100 + 0.5)
	h := cs / 360000
	m := (cs / 6000) % 60
	s := (cs / 100) % 60
	c := cs % 100
	return fmt.Sprintf("%d:%02d:%02d.%02d", h, m, s, c)
}

// escapeDrawtext escapes the characters drawtext treats specially inside a
// text value.
func escapeDrawtext(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, ":", "\\:")
	text = strings.ReplaceAll(text, "'", "\\'")
	text = strings.ReplaceAll(text, "%", "\\%")
	return text
}

// escapeSubtitlePath escapes a file path for use inside the subtitles filter
// argument.
func escapeSubtitlePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.ReplaceAll(path, ":", "\\:")
	return path
}
