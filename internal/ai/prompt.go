package ai

import (
	"fmt"
	"sort"
	"strings"

	"realcapital/server/internal/models"
)

// BuildPrompt renders the report's numeric findings into the completion
// prompt. The instructions explicitly forbid fabricating figures not
// present in the data.
func BuildPrompt(report *models.MarketAnalysisReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "אתה מומחה נדל\"ן בישראל. כתוב ניתוח שוק מקצועי בעברית עבור הנכס הבא:\n\n")
	fmt.Fprintf(&b, "נכס: %s\n", report.SubjectAddress)
	fmt.Fprintf(&b, "סוג: %s\n", report.SubjectPropertyType)
	fmt.Fprintf(&b, "עיר: %s\n", report.SubjectCity)
	fmt.Fprintf(&b, "שכונה: %s\n", report.SubjectNeighborhood)
	fmt.Fprintf(&b, "רחוב: %s\n", report.SubjectStreet)

	b.WriteString("\n=== נתוני שוק ===\n")
	writeTransactionSummary(&b, report)
	writeFloorSummary(&b, report)
	writeAgeSummary(&b, report)
	writeTrendSummary(&b, report)
	writeListingSummary(&b, report)
	writeEstimateSummary(&b, report)

	b.WriteString(`
=== הנחיות לכתיבה ===

כתוב דו"ח ניתוח שוק מקצועי הכולל:

1. **סקירת שוק כללית** - מגמות המחירים באזור, האם השוק עולה/יורד/יציב
2. **השוואה לנכסים דומים** - הבדלים בולטים בין הנכסים, מה משפיע על מחיר
3. **ישן מול חדש** - הפרשי מחירים בין בניינים ישנים לחדשים, האם יש פרמיית חדש
4. **השפעת קומה** - האם ובכמה הקומה משפיעה על המחיר באזור
5. **חוזקות וחולשות** - יתרונות וחסרונות של הנכס/האזור
6. **המלצת תמחור** - טווח מחיר מומלץ עם הסבר

כללי כתיבה:
- כתוב בעברית מקצועית וברורה
- הימנע מהכללות ריקות, התבסס על הנתונים
- ציין מספרים ספציפיים כשרלוונטי
- אורך: 300-500 מילים
- אל תמציא נתונים שלא ניתנו לך
- אם אין מספיק נתונים לסעיף מסוים, ציין זאת
`)

	return b.String()
}

func writeTransactionSummary(b *strings.Builder, report *models.MarketAnalysisReport) {
	if len(report.Transactions) == 0 {
		return
	}

	minPrice, maxPrice := report.Transactions[0].DealAmount, report.Transactions[0].DealAmount
	var sqmSum float64
	var sqmCount int
	for i := range report.Transactions {
		tx := &report.Transactions[i]
		if tx.DealAmount < minPrice {
			minPrice = tx.DealAmount
		}
		if tx.DealAmount > maxPrice {
			maxPrice = tx.DealAmount
		}
		if p := tx.PricePerSqm(); p != nil {
			sqmSum += *p
			sqmCount++
		}
	}

	fmt.Fprintf(b, "\nעסקאות שנמצאו: %d\n", len(report.Transactions))
	fmt.Fprintf(b, "טווח מחירים: %.0f - %.0f ש\"ח\n", minPrice, maxPrice)
	if sqmCount > 0 {
		fmt.Fprintf(b, "ממוצע מחיר למ\"ר: %.0f ש\"ח (מתוך %d עסקאות)\n", sqmSum/float64(sqmCount), sqmCount)
	}

	recent := make([]*models.Transaction, 0, len(report.Transactions))
	for i := range report.Transactions {
		if report.Transactions[i].DealDate != nil {
			recent = append(recent, &report.Transactions[i])
		}
	}
	sort.Slice(recent, func(i, j int) bool {
		return recent[i].DealDate.After(*recent[j].DealDate)
	})
	if len(recent) > 10 {
		recent = recent[:10]
	}

	if len(recent) > 0 {
		b.WriteString("\nעסקאות אחרונות:\n")
		for _, tx := range recent {
			fmt.Fprintf(b, "  - %s | %.0f ש\"ח | %s חד' | קומה %s | %s מ\"ר | שנת בנייה %s | %s\n",
				tx.Address, tx.DealAmount,
				orUnknownFloat(tx.Rooms), orUnknownInt(tx.Floor),
				orUnknownFloat(tx.SizeSqm), orUnknownInt(tx.BuildingYear),
				tx.DealDate.Format("02/01/2006"))
		}
	}
}

func writeFloorSummary(b *strings.Builder, report *models.MarketAnalysisReport) {
	if len(report.FloorAnalysis) == 0 {
		return
	}
	b.WriteString("\nניתוח לפי קומה:\n")
	for _, fa := range report.FloorAnalysis {
		fmt.Fprintf(b, "  - קומה %d: ממוצע %.0f ש\"ח/מ\"ר (%d עסקאות)\n",
			fa.Floor, fa.AvgPricePerSqm, fa.TransactionCount)
	}
}

func writeAgeSummary(b *strings.Builder, report *models.MarketAnalysisReport) {
	if len(report.BuildingAge) == 0 {
		return
	}
	b.WriteString("\nניתוח לפי גיל בניין:\n")
	for _, ba := range report.BuildingAge {
		premium := ""
		if ba.PricePremiumPct != nil {
			premium = fmt.Sprintf(" (%+.1f%%)", *ba.PricePremiumPct)
		}
		fmt.Fprintf(b, "  - %s: %.0f ש\"ח/מ\"ר%s (%d עסקאות)\n",
			ba.Category, ba.AvgPricePerSqm, premium, ba.TransactionCount)
	}
}

func writeTrendSummary(b *strings.Builder, report *models.MarketAnalysisReport) {
	if len(report.PriceTrends) == 0 {
		return
	}
	trends := report.PriceTrends
	if len(trends) > 8 {
		trends = trends[len(trends)-8:]
	}
	b.WriteString("\nמגמות מחיר (לפי רבעון):\n")
	for _, pt := range trends {
		change := ""
		if pt.ChangePct != nil {
			change = fmt.Sprintf(" (%+.1f%%)", *pt.ChangePct)
		}
		fmt.Fprintf(b, "  - %s: %.0f ש\"ח/מ\"ר%s\n", pt.Period, pt.AvgPricePerSqm, change)
	}
}

func writeListingSummary(b *strings.Builder, report *models.MarketAnalysisReport) {
	if len(report.CurrentListings) == 0 {
		return
	}
	fmt.Fprintf(b, "\nנכסים מפורסמים כרגע ביד2: %d\n", len(report.CurrentListings))
	listings := report.CurrentListings
	if len(listings) > 5 {
		listings = listings[:5]
	}
	for i := range listings {
		l := &listings[i]
		fmt.Fprintf(b, "  - %s | %.0f ש\"ח | %s חד' | %s מ\"ר\n",
			l.Address, l.Price, orUnknownFloat(l.Rooms), orUnknownFloat(l.SizeSqm))
	}
}

func writeEstimateSummary(b *strings.Builder, report *models.MarketAnalysisReport) {
	ve := report.ValueEstimate
	if ve == nil {
		return
	}
	b.WriteString("\nהערכת שווי (אלגוריתמית):\n")
	fmt.Fprintf(b, "  טווח: %.0f - %.0f ש\"ח\n", ve.EstimatedPriceLow, ve.EstimatedPriceHigh)
	fmt.Fprintf(b, "  מחיר ממוצע למ\"ר: %.0f ש\"ח\n", ve.EstimatedPricePerSqm)
	fmt.Fprintf(b, "  רמת ביטחון: %s\n", ve.Confidence)
	fmt.Fprintf(b, "  מבוסס על: %d נכסים\n", ve.ComparableCount)
}

func orUnknownFloat(f *float64) string {
	if f == nil {
		return "?"
	}
	return fmt.Sprintf("%g", *f)
}

func orUnknownInt(i *int) string {
	if i == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *i)
}
