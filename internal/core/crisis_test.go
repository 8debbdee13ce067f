package core

import "testing"

func TestCrisisPolicyKeywordMatch(t *testing.T) {
	p := NewCrisisPolicy()
	tests := []struct {
		text    string
		want    bool
		keyword string
	}{
		{"estoy pensando en hacerme daño", true, "hacerme daño"},
		{"ESTOY PENSANDO EN HACERME DAÑO", true, "hacerme daño"},
		{"a veces pienso en el suicidio", true, "suicid"},
		{"Ya no puedo más con esto", true, "no puedo más"},
		{"quiero terminar todo", true, "terminar todo"},
		{"estoy pensando en hacerme dan\u0303o", true, "hacerme daño"},
		{"me hice una autolesion", true, "autolesión"},
		{"YA NO PUEDO MAS", true, "no puedo más"},
		{"quiero quitarme la vída", true, "quitarme la vida"},
		{"hoy me siento bien", false, ""},
		{"tuve una buena semana en el trabajo", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			kw, ok := p.MatchKeyword(tt.text)
			if ok != tt.want {
				t.Fatalf("match = %v, want %v", ok, tt.want)
			}
			if kw != tt.keyword {
				t.Fatalf("keyword = %q, want %q", kw, tt.keyword)
			}
		})
	}
}

func TestCrisisPolicyExtraKeywords(t *testing.T) {
	p := NewCrisisPolicy("  Sin Salida ", "", "suicid")
	if _, ok := p.MatchKeyword("me siento sin salida"); !ok {
		t.Fatal("extra keyword should match case-insensitively")
	}
	count := 0
	for _, kw := range p.Keywords() {
		if kw == "suicid" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("duplicate keywords should be dropped, found %d", count)
	}
}

func TestCrisisPolicyEvaluate(t *testing.T) {
	p := NewCrisisPolicy()
	tests := []struct {
		name  string
		text  string
		label string
		want  bool
	}{
		{"keyword regardless of label", "quiero morir", "positivo", true},
		{"keyword without label", "quiero morir", "", true},
		{"classifier label alone", "no sé qué hacer ya", "crisis", true},
		{"classifier label with punctuation", "no sé qué hacer ya", " Crisis.\n", true},
		{"label must be exact", "no sé qué hacer ya", "crisis leve", false},
		{"calm message", "hoy me siento bien", "positivo", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := p.Evaluate(tt.text, tt.label)
			if a.Crisis != tt.want {
				t.Fatalf("crisis = %v, want %v (%+v)", a.Crisis, tt.want, a)
			}
			if tt.want && a.Level() != CrisisLevelHigh {
				t.Fatalf("level = %q", a.Level())
			}
			if !tt.want && a.Level() != "" {
				t.Fatalf("level = %q, want empty", a.Level())
			}
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	for in, want := range map[string]string{
		"Positivo":    "positivo",
		"  crisis  ":  "crisis",
		"\"neutral\"": "neutral",
		"Negativo.":   "negativo",
		"":            "",
	} {
		if got := NormalizeLabel(in); got != want {
			t.Errorf("NormalizeLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsCrisisLabel(t *testing.T) {
	if !IsCrisisLabel(NormalizeLabel("CRISIS!")) {
		t.Error("normalized crisis label should flag")
	}
	if IsCrisisLabel("negativo") {
		t.Error("negativo is not a crisis label")
	}
}

// The keyword floor favours recall: broad stems from the default list also
// flag everyday phrasing.
func TestCrisisPolicyBroadStemsFlagEverydayPhrases(t *testing.T) {
	p := NewCrisisPolicy()
	kw, ok := p.MatchKeyword("voy a acabar la tarea hoy, me duele un poco el dolor de cabeza")
	if !ok || kw != "dolor" {
		t.Fatalf("match = %q, %v", kw, ok)
	}
}

func TestCrisisPolicyFoldsExtraKeywords(t *testing.T) {
	p := NewCrisisPolicy("sin salída", "sin salida")
	kws := p.Keywords()
	if got := kws[len(kws)-1]; got != "sin salída" {
		t.Fatalf("last keyword = %q", got)
	}
	if len(kws) != len(DefaultCrisisKeywords)+1 {
		t.Fatalf("keywords folding to the same text should be dropped: %v", kws)
	}
	if kw, ok := p.MatchKeyword("Me siento SIN SALIDA"); !ok || kw != "sin salída" {
		t.Fatalf("match = %q, %v", kw, ok)
	}
}
