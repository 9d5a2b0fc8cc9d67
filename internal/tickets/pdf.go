package tickets

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"

	"fasobus/internal/domain/models"
	"fasobus/internal/utils"
)

func buildETicketPDF(t models.Ticket) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Billet electronique", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BILLET ELECTRONIQUE")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Passager      : %s", safe(t.PassengerName, "-")),
		fmt.Sprintf("Telephone     : %s", safe(t.PassengerPhone, "-")),
		fmt.Sprintf("Siege         : %s", safe(t.SeatCode, "-")),
		fmt.Sprintf("Compagnie     : %s", safe(t.Operator, "-")),
		fmt.Sprintf("Trajet        : %s -> %s", safe(t.RouteFrom, "-"), safe(t.RouteTo, "-")),
		fmt.Sprintf("Date / Heure  : %s %s", safe(utils.DateOnly(t.TripDate), "-"), safe(utils.TimeHM(t.TripTime), "-")),
		fmt.Sprintf("Prix          : %s", utils.FormatCFA(t.PricePaid)),
		fmt.Sprintf("Statut        : %s", safe(t.Status, "-")),
		fmt.Sprintf("Code billet   : %s", safe(t.Code, "-")),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Ce billet est valable pour 1 passager (1 siege). A presenter au depart avec une piece d'identite.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("BILLET_%d_%s.pdf", t.ID, utils.SafeFilenamePart(t.PassengerName+"_"+t.SeatCode))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
