package screen

// User-facing messages.
const (
	MsgServerUnreachable = "Impossible de contacter le serveur."
	MsgPairingFailed     = "Impossible de contacter le serveur. Veuillez vérifier qu'il est bien lancé."
	MsgSettingsLoad      = "Impossible de charger les paramètres."
	MsgSettingsEmpty     = "Aucun paramètre trouvé."
	MsgSettingsSaved     = "Paramètres sauvegardés avec succès !"
	MsgSettingsSaveError = "Erreur lors de la sauvegarde des paramètres."
	MsgDashboardFailed   = "Impossible de charger les statistiques."
)
