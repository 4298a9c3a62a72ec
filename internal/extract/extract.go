// Package extract parses the text of a 厚生労働省 violation publication
// into raw records. Input is either pdftotext -layout output or a
// pre-tabulated text dump; both carry per-bureau sections with one row per
// published case.
package extract

import (
	"regexp"
	"strings"

	"github.com/rouki-watch/rouki-cli/internal/model"
	"github.com/rouki-watch/rouki-cli/internal/normalize"
)

var prefectures = []string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県", "岐阜県",
	"静岡県", "愛知県", "三重県", "滋賀県", "京都府", "大阪府", "兵庫県",
	"奈良県", "和歌山県", "鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県", "福岡県", "佐賀県", "長崎県",
	"熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

var (
	bureauRe       = regexp.MustCompile(`([^\s]+労働局)`)
	sourceDateRe   = regexp.MustCompile(`[HR]\d+\.\d+\.\d+`)
	prosecutionRe  = regexp.MustCompile(`([HR]\d+\.\d+\.\d+)送検`)
	lawRe          = regexp.MustCompile(`(労働安全衛生法|労働基準法|最低賃金法|労働者派遣法)`)
	prefectureRe   = regexp.MustCompile(`(` + strings.Join(prefectures, "|") + `)[^\s]*`)
	multiSpaceRe   = regexp.MustCompile(`\s{2,}`)
	trailingLawRe  = regexp.MustCompile(`(労働安全衛生法|最低賃金法).*$`)
	bureauHeaderRe = regexp.MustCompile(`^(.+労働局)`)
)

// FromTabular parses tab- or wide-space-separated text: one bureau header
// line per section, then one row per case in the published column order.
func FromTabular(text string) []model.RawRecord {
	var records []model.RawRecord
	var bureau string

	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasSuffix(line, "労働局") && len([]rune(line)) < 15 {
			bureau = line
			continue
		}

		var parts []string
		if strings.Contains(line, "\t") {
			parts = strings.Split(line, "\t")
		} else {
			parts = multiSpaceRe.Split(line, -1)
		}
		if len(parts) < 5 || bureau == "" {
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		name := parts[0]
		if strings.Contains(name, "企業・事業場") {
			continue
		}

		rec := model.RawRecord{
			LaborBureau:             bureau,
			CompanyName:             name,
			Location:                parts[1],
			PublicationDateOriginal: parts[2],
			ViolationLaw:            parts[3],
			ViolationSummary:        parts[4],
		}
		if len(parts) > 5 {
			rec.Reference = parts[5]
		}
		rec.PublicationDate = toISO(rec.PublicationDateOriginal)
		rec.ProsecutionDate = prosecutionDate(rec.Reference)
		records = append(records, rec)
	}
	return records
}

// FromLayoutText parses pdftotext -layout output, where table geometry is
// gone and each case is anchored by its era-form publication date.
func FromLayoutText(text, initialBureau string) []model.RawRecord {
	lines := strings.Split(text, "\n")
	bureau := initialBureau

	for _, line := range lines {
		if strings.Contains(line, "労働局") && strings.Contains(line, "最終更新日") {
			if m := bureauHeaderRe.FindStringSubmatch(line); m != nil {
				bureau = strings.TrimSpace(m[1])
				break
			}
		}
	}
	if bureau == "" {
		return nil
	}

	var dateLines []int
	for i, line := range lines {
		if sourceDateRe.MatchString(line) &&
			!strings.Contains(line, "企業・事業場名称") &&
			!strings.Contains(line, "最終更新日") {
			dateLines = append(dateLines, i)
		}
	}

	var records []model.RawRecord
	for idx, lineIdx := range dateLines {
		line := lines[lineIdx]
		dates := sourceDateRe.FindAllString(line, -1)
		if len(dates) == 0 {
			continue
		}
		pubOriginal := dates[0]

		reference := ""
		if strings.Contains(line, "送検") {
			reference = dates[len(dates)-1] + "送検"
		}

		firstDatePos := strings.Index(line, pubOriginal)
		beforeDate := strings.TrimSpace(line[:firstDatePos])

		// Company names wrap onto preceding lines; pull them back in,
		// skipping anything that is a law clause or another case.
		var prevText string
		for prev := lineIdx - 1; prev >= 0 && prev >= lineIdx-2; prev-- {
			prevLine := strings.TrimSpace(lines[prev])
			if sourceDateRe.MatchString(prevLine) ||
				strings.Contains(prevLine, "労働局") ||
				strings.Contains(prevLine, "企業・事業場名称") ||
				strings.HasPrefix(prevLine, "労働") ||
				strings.HasPrefix(prevLine, "最低") {
				continue
			}
			prevText = prevLine + " " + prevText
		}
		fullBefore := strings.TrimSpace(prevText + " " + beforeDate)

		name, location := splitNameLocation(fullBefore)
		name = normalize.CollapseSpace(trailingLawRe.ReplaceAllString(name, ""))
		if len([]rune(name)) < 2 ||
			strings.Contains(name, "企業・事業場") || strings.Contains(name, "所在地") {
			continue
		}

		searchEnd := min(len(lines), lineIdx+3)
		if idx+1 < len(dateLines) {
			searchEnd = min(searchEnd, dateLines[idx+1])
		}
		law, summary := collectClauses(lines, max(0, lineIdx-2), searchEnd, line, firstDatePos+len(pubOriginal))

		records = append(records, model.RawRecord{
			LaborBureau:             bureau,
			CompanyName:             name,
			Location:                location,
			PublicationDate:         toISO(pubOriginal),
			PublicationDateOriginal: pubOriginal,
			ViolationLaw:            law,
			ViolationSummary:        summary,
			Reference:               reference,
			ProsecutionDate:         prosecutionDate(reference),
		})
	}
	return records
}

// splitNameLocation splits "company prefecture-anchored-location" text.
func splitNameLocation(s string) (name, location string) {
	m := prefectureRe.FindStringIndex(s)
	if m == nil {
		return s, ""
	}
	location = s[m[0]:m[1]]
	// Drop law text glued onto the location.
	if i := strings.Index(location, "労働"); i > 0 {
		location = location[:i]
	}
	return strings.TrimSpace(s[:m[0]]), strings.TrimSpace(location)
}

// collectClauses gathers violation-law and case-summary fragments from the
// lines surrounding a date-anchored row.
func collectClauses(lines []string, start, end int, dateLine string, afterDatePos int) (law, summary string) {
	var lawParts, summaryParts []string

	appendClause := func(line string) {
		clean := strings.TrimSpace(sourceDateRe.ReplaceAllString(strings.ReplaceAll(line, "送検", ""), ""))
		if clean == "" {
			return
		}
		if lawRe.MatchString(clean) {
			lawParts = append(lawParts, clean)
		} else if strings.Contains(clean, "もの") || strings.Contains(clean, "なかった") {
			summaryParts = append(summaryParts, clean)
		}
	}

	for i := start; i < end; i++ {
		appendClause(lines[i])
	}
	if afterDatePos < len(dateLine) {
		appendClause(dateLine[afterDatePos:])
	}

	return dedupeJoin(lawParts), dedupeJoin(summaryParts)
}

func dedupeJoin(parts []string) string {
	seen := make(map[string]bool, len(parts))
	var out []string
	for _, p := range parts {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// prosecutionDate pulls an era-form date followed by 送検 out of the
// reference cell and converts it to ISO.
func prosecutionDate(reference string) string {
	m := prosecutionRe.FindStringSubmatch(reference)
	if m == nil {
		return ""
	}
	return toISO(m[1])
}

// toISO converts a source-format date to ISO, keeping the original value
// when it matches no known format so the normalizer can flag it.
func toISO(s string) string {
	iso, err := normalize.NormalizeDate(s)
	if err != nil {
		return s
	}
	return iso
}
