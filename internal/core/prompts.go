package core

import "github.com/ccodesido/zentiumassist-all/pkg"

// prompts.go holds the Spanish persona texts and fixed replies used by the
// chat and analysis components.  Keeping them apart from the logic makes them
// easy to tweak.

const (
	// AssistantPersona is the system prompt for the patient chat.  It keeps
	// the assistant supportive, defers to the human professional and asks it
	// to surface crisis guidance.
	AssistantPersona = "Eres un asistente virtual empático especializado en salud mental para la plataforma Zentium Assist. " +
		"Tu rol es brindar apoyo emocional y contención, escuchar activamente y validar emociones, " +
		"sugerir técnicas de relajación y mindfulness, recordar las tareas terapéuticas asignadas " +
		"y detectar señales de crisis (ideación suicida, autolesión). " +
		"IMPORTANTE: no eres un reemplazo del terapeuta. Para cuestiones complejas recuerda siempre que deben consultar a su profesional asignado. " +
		"Si detectas una crisis, indica de inmediato que contacten a su profesional o a los servicios de emergencia."

	// ClassifierPersona is the minimal system prompt for the sentiment
	// classifier call.
	ClassifierPersona = "Eres un analizador de sentimientos. Responde solo con una palabra."

	// classifierPromptFormat embeds the patient message in the classifier
	// request.  The label set includes "crisis".
	classifierPromptFormat = "Analiza el sentimiento del siguiente mensaje en una palabra (positivo/negativo/neutral/crisis): '%s'"

	// AnalysisPersona instructs the agent to return a JSON analysis of a
	// therapy session transcript.
	AnalysisPersona = "Eres un asistente de análisis clínico. Analiza transcripciones de sesiones terapéuticas y proporciona: " +
		"1. Resumen de temas principales 2. Estado emocional del paciente 3. Indicadores de progreso o retroceso " +
		"4. Recomendaciones para seguimiento 5. Nivel de riesgo (bajo/medio/alto). " +
		"Responde en formato JSON con las claves: summary, emotional_state, progress_indicators, recommendations, risk_level"

	analysisPromptFormat = "Analiza la siguiente transcripción de sesión terapéutica:\n\n%s"

	// FallbackReply is returned to the patient when the agent is unavailable.
	// It redirects to human help and makes no claim about crisis risk.
	FallbackReply = "Disculpa, estoy teniendo dificultades técnicas. Por favor, contacta a tu profesional asignado " +
		"o a los servicios de emergencia si necesitas ayuda inmediata."
)

// QuickChatFallbackReply answers a session-less chat when the agent is
// unavailable.
const QuickChatFallbackReply = "Lo siento, hay un problema técnico temporal. Por favor intenta de nuevo en unos momentos. " +
	"Si necesitas ayuda urgente, contacta directamente con tu profesional o servicios de emergencia."

// QuickChatFallbackRecommendations accompany QuickChatFallbackReply.
var QuickChatFallbackRecommendations = []string{
	"Contacta con soporte técnico si el problema persiste",
}

// CrisisRecommendations are returned whenever a message is flagged.
var CrisisRecommendations = []string{
	"Contacta inmediatamente con tu profesional asignado",
	"Llama a servicios de emergencia si sientes riesgo inmediato",
	"No estás solo/a, hay ayuda disponible 24/7",
}

// SupportRecommendations are returned for ordinary messages.
var SupportRecommendations = []string{
	"Continúa compartiendo tus sentimientos",
	"Practica técnicas de relajación si te sientes ansioso/a",
	"Recuerda que es normal tener altibajos emocionales",
}

// FallbackRecommendations accompany FallbackReply.
var FallbackRecommendations = []string{
	"Contacta directamente con tu profesional asignado",
	"Llama a servicios de emergencia si sientes riesgo inmediato",
}

// DefaultCrisisKeywords is the fixed keyword floor of the crisis policy.
// Matching is case-insensitive substring matching, so stems such as "suicid"
// cover their inflections.
var DefaultCrisisKeywords = []string{
	"suicid",
	"suicidio",
	"matarme",
	"quitarme la vida",
	"morir",
	"hacerme daño",
	"autolesión",
	"lastimarme",
	"lastimar",
	"dolor",
	"no puedo más",
	"no puedo seguir",
	"acabar con todo",
	"acabar",
	"terminar todo",
}

// analysisPending is stored when the agent answered but not with the
// expected JSON.
var analysisPending = pkg.SessionAnalysis{
	Summary:            "Análisis generado",
	EmotionalState:     "En evaluación",
	ProgressIndicators: "Pendiente de análisis detallado",
	Recommendations:    "Continuar seguimiento",
	RiskLevel:          "bajo",
}

// analysisFailed is stored when the agent could not be reached.
var analysisFailed = pkg.SessionAnalysis{
	Summary:            "Error en análisis",
	EmotionalState:     "No evaluado",
	ProgressIndicators: "Error en procesamiento",
	Recommendations:    "Revisar manualmente",
	RiskLevel:          "bajo",
}
