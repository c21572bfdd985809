package sparql

import (
	"fmt"
	"strings"

	"github.com/jonathan/occupation-matcher/internal/types"
)

const prefixes = `PREFIX cnlo: <https://linkeddata.competentnl.nl/def/competentnl#>
PREFIX cnluwvo: <https://linkeddata.competentnl.nl/def/uwv-ontology#>
PREFIX skos: <http://www.w3.org/2004/02/skos/core#>
`

// classIRIs maps concept types to their class in the graph
var classIRIs = map[types.ConceptType]string{
	types.ConceptOccupation:      "cnlo:Occupation",
	types.ConceptHumanCapability: "cnlo:HumanCapability",
	types.ConceptKnowledgeArea:   "cnlo:KnowledgeArea",
	types.ConceptTask:            "cnluwvo:Task",
	types.ConceptEducationalNorm: "cnlo:EducationalNorm",
}

// tierPredicates maps requirement tiers to their predicate
var tierPredicates = map[types.Tier]string{
	types.TierEssential: "cnlo:requiresHATEssential",
	types.TierImportant: "cnlo:requiresHATImportant",
	types.TierSomewhat:  "cnlo:requiresHATSomewhat",
}

// RequiredConceptTypes are the object classes of requirement links
var RequiredConceptTypes = []types.ConceptType{
	types.ConceptHumanCapability,
	types.ConceptKnowledgeArea,
	types.ConceptTask,
}

// ClassIRI returns the prefixed class of a concept type
func ClassIRI(ct types.ConceptType) (string, error) {
	iri, ok := classIRIs[ct]
	if !ok {
		return "", fmt.Errorf("no graph class for concept type %q", ct)
	}
	return iri, nil
}

// Predicate returns the prefixed requirement predicate of a tier
func Predicate(tier types.Tier) (string, error) {
	p, ok := tierPredicates[tier]
	if !ok {
		return "", fmt.Errorf("no predicate for tier %d", tier)
	}
	return p, nil
}

// RequirementLinksQuery selects one page of requirement links of one tier
// from occupations to concepts of objectType.
func RequirementLinksQuery(tier types.Tier, objectType types.ConceptType, language string, limit, offset int) (string, error) {
	predicate, err := Predicate(tier)
	if err != nil {
		return "", err
	}
	objectClass, err := ClassIRI(objectType)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(prefixes)
	b.WriteString("\nSELECT DISTINCT ?subject ?subjectLabel ?object ?objectLabel\nWHERE {\n")
	b.WriteString("  ?subject a cnlo:Occupation ;\n")
	fmt.Fprintf(&b, "           %s ?object .\n", predicate)
	fmt.Fprintf(&b, "  ?object a %s .\n", objectClass)
	fmt.Fprintf(&b, "  OPTIONAL { ?subject skos:prefLabel ?subjectLabel . FILTER(LANG(?subjectLabel) = %q) }\n", language)
	fmt.Fprintf(&b, "  OPTIONAL { ?object skos:prefLabel ?objectLabel . FILTER(LANG(?objectLabel) = %q) }\n", language)
	b.WriteString("}\nORDER BY ?subject ?object\n")
	fmt.Fprintf(&b, "LIMIT %d\nOFFSET %d\n", limit, offset)
	return b.String(), nil
}

// OccupationCountQuery counts distinct occupations
func OccupationCountQuery() string {
	return prefixes + `
SELECT (COUNT(DISTINCT ?occ) AS ?totalCount)
WHERE {
  ?occ a cnlo:Occupation .
}
`
}

// PingQuery is a cheap ASK used for health checks
func PingQuery() string {
	return prefixes + `
ASK { ?occ a cnlo:Occupation }
`
}
