package workflow

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"precinct/internal/models"
)

// placeholderNamespace seeds the deterministic ids of suspects whose evidence
// carries no identifying information.
var placeholderNamespace = uuid.MustParse("6f1c2a53-7f7e-4b8e-9d0a-3c1b6e2f9a41")

// Identity is what a piece of evidence reveals about a person.
type Identity struct {
	FirstName  string
	LastName   string
	NationalID string
}

// Empty reports whether nothing identifying was found.
func (id Identity) Empty() bool {
	return id.NationalID == "" && id.FirstName == "" && id.LastName == ""
}

// ExtractIdentity pulls identifying fields out of an evidence variant: the
// owner of a vehicle, the witness of a testimony or name-like attributes of a
// document. Other variants reveal nothing.
func ExtractIdentity(e models.Evidence) Identity {
	switch v := e.(type) {
	case *models.Vehicle:
		return identityFromName(v.OwnerName)
	case *models.Testimony:
		return identityFromName(v.WitnessName)
	case *models.Document:
		return identityFromAttributes(v.Attributes)
	}
	return Identity{}
}

func identityFromName(name string) Identity {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return Identity{}
	case 1:
		return Identity{FirstName: fields[0]}
	}
	return Identity{FirstName: fields[0], LastName: strings.Join(fields[1:], " ")}
}

func identityFromAttributes(attrs map[string]string) Identity {
	lookup := make(map[string]string, len(attrs))
	for k, v := range attrs {
		if v = strings.TrimSpace(v); v != "" {
			lookup[strings.ToLower(strings.TrimSpace(k))] = v
		}
	}

	var id Identity
	for _, key := range []string{"full_name", "name", "owner_name", "suspect_name", "holder_name"} {
		if v, ok := lookup[key]; ok {
			id = identityFromName(v)
			break
		}
	}
	if id.FirstName == "" {
		id.FirstName = lookup["first_name"]
		id.LastName = lookup["last_name"]
	}
	id.NationalID = lookup["national_id"]
	return id
}

// ExternalID derives the deduplication key of a suspect. A national id wins
// over a name; with neither, the key is a placeholder that is deterministic
// for the report and reference it came from.
func ExternalID(id Identity, reportID uint, ref models.Ref) string {
	if id.NationalID != "" {
		return "nid:" + id.NationalID
	}
	if name := normalizeName(id.FirstName + " " + id.LastName); name != "" {
		return "name:" + name
	}
	key := fmt.Sprintf("report:%d:%s", reportID, ref)
	return "placeholder:" + uuid.NewSHA1(placeholderNamespace, []byte(key)).String()
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}

// SuspectFromIdentity builds a new suspect for materialization.
func SuspectFromIdentity(id Identity, externalID string, ref models.Ref) *models.Suspect {
	s := &models.Suspect{
		ExternalID: externalID,
		FirstName:  id.FirstName,
		LastName:   id.LastName,
		NationalID: id.NationalID,
		Status:     models.SuspectUnderInvestigation,
	}
	if s.FirstName == "" && s.LastName == "" {
		s.FirstName = "Unidentified"
		s.LastName = "(" + ref.String() + ")"
	}
	return s
}
