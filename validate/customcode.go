package validate

import (
	"regexp"
	"strings"

	"pbc/dom"
)

// animationLibraries are script and stylesheet names whose behavior the
// target schema cannot reproduce natively.
var animationLibraries = []string{
	"wow.js", "wow.min.js", "aos", "gsap", "anime.min.js", "anime.js",
	"countup", "particles", "typed.js", "scrollreveal",
}

// animationClassMarkers are class prefixes left behind by those libraries.
var animationClassMarkers = []string{"animate__", "aos-", "wow"}

var (
	keyframesRe = regexp.MustCompile(`@keyframes\s+[\w-]+`)
	fixedPosRe  = regexp.MustCompile(`position\s*:\s*fixed`)
	blockingRe  = regexp.MustCompile(`document\.write|eval\s*\(`)
)

// customCodeCheck statically scans the source page for script and CSS
// features the target schema cannot represent. Every finding carries a
// supported flag and, when unsupported, a suggested manual workaround; a
// blocking finding forces the whole validation invalid regardless of the
// visual and asset scores.
func (v *Validator) customCodeCheck(original Target) (*CustomCodeResult, error) {
	doc, err := dom.Parse([]byte(original.HTML), dom.Options{BaseURL: original.BaseURL}, v.log)
	if err != nil {
		return nil, err
	}

	res := &CustomCodeResult{}
	add := func(f Feature) {
		res.Features = append(res.Features, f)
	}

	for _, script := range doc.Find("script") {
		if src, ok := script.Attr("src"); ok {
			if lib := matchLibrary(src); lib != "" {
				add(Feature{
					Type:       "animation-library",
					Detail:     src,
					Workaround: "recreate the effect with the builder's motion controls",
				})
				continue
			}
			add(Feature{
				Type:       "script",
				Detail:     src,
				Workaround: "re-add through the builder's custom scripts area",
			})
			continue
		}
		body := script.FullText()
		f := Feature{
			Type:       "inline-script",
			Detail:     truncate(body, 120),
			Workaround: "move the code into the builder's custom scripts area",
		}
		if blockingRe.MatchString(body) {
			f.Blocking = true
			f.Workaround = "rewrite without document.write/eval before importing"
		}
		add(f)
	}

	if body := doc.Body(); body != nil {
		scanHandlers(body, add)
		scanAnimationClasses(body, add)
	}

	for _, block := range doc.StyleBlocks() {
		if m := keyframesRe.FindString(block); m != "" {
			add(Feature{
				Type:       "css-animation",
				Detail:     m,
				Workaround: "use the builder's entrance animations",
			})
		}
		if fixedPosRe.MatchString(block) {
			add(Feature{
				Type:       "fixed-position",
				Detail:     "position: fixed",
				Workaround: "use the builder's sticky setting",
			})
		}
	}

	res.Score = scoreFeatures(res.Features)
	return res, nil
}

func scanHandlers(el *dom.Element, add func(Feature)) {
	for name, value := range el.Attrs {
		if strings.HasPrefix(strings.ToLower(name), "on") && value != "" {
			add(Feature{
				Type:       "inline-event-handler",
				Detail:     el.Tag + "/" + name,
				Workaround: "attach the handler from custom scripts instead of the attribute",
			})
		}
	}
	for _, c := range el.Children() {
		scanHandlers(c, add)
	}
}

func scanAnimationClasses(el *dom.Element, add func(Feature)) {
	seen := make(map[string]struct{})
	var walk func(e *dom.Element)
	walk = func(e *dom.Element) {
		for _, cls := range e.Classes() {
			low := strings.ToLower(cls)
			for _, marker := range animationClassMarkers {
				if !strings.HasPrefix(low, marker) {
					continue
				}
				if _, dup := seen[marker]; dup {
					continue
				}
				seen[marker] = struct{}{}
				add(Feature{
					Type:       "animation-library",
					Detail:     "class " + cls,
					Workaround: "recreate the effect with the builder's motion controls",
				})
			}
		}
		for _, c := range e.Children() {
			walk(c)
		}
	}
	walk(el)
}

func matchLibrary(src string) string {
	low := strings.ToLower(src)
	for _, lib := range animationLibraries {
		if strings.Contains(low, lib) {
			return lib
		}
	}
	return ""
}

// scoreFeatures deducts per finding: unsupported costs 8, blocking 25.
func scoreFeatures(features []Feature) float64 {
	score := 100.0
	for _, f := range features {
		if f.Supported {
			continue
		}
		if f.Blocking {
			score -= 25
		} else {
			score -= 8
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
