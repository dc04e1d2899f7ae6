package authz

import "sync"

// registry is the single source of truth for every grantable action in the
// back office. New permissions are declared here and nowhere else; the
// database permissions table is seeded from this list at migration time.
//
// Every menu with a dedicated screen carries a view_page action. Labels and
// descriptions are in French, the display language of the back office.
var registry = []ModuleDef{
	{
		Module: "accounting",
		Menus: []MenuDef{
			{
				Menu: "segments",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les segments", Description: "Accéder à l'écran des segments comptables", SortOrder: 1},
					{Action: "create", Label: "Créer un segment", Description: "Ajouter un nouveau segment comptable", SortOrder: 2},
					{Action: "update", Label: "Modifier un segment", Description: "Mettre à jour un segment existant", SortOrder: 3},
					{Action: "delete", Label: "Supprimer un segment", Description: "Supprimer définitivement un segment", SortOrder: 4},
					{Action: "export", Label: "Exporter les segments", Description: "Exporter la liste des segments au format CSV", SortOrder: 5},
				},
			},
			{
				Menu: "cities",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les villes", Description: "Accéder à l'écran des villes", SortOrder: 1},
					{Action: "create", Label: "Créer une ville", Description: "Ajouter une nouvelle ville", SortOrder: 2},
					{Action: "update", Label: "Modifier une ville", Description: "Mettre à jour une ville existante", SortOrder: 3},
					{Action: "delete", Label: "Supprimer une ville", Description: "Supprimer définitivement une ville", SortOrder: 4},
				},
			},
			{
				Menu: "declarations",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les déclarations", Description: "Accéder à l'écran des déclarations fiscales et sociales", SortOrder: 1},
					{Action: "create", Label: "Créer une déclaration", Description: "Saisir une nouvelle déclaration", SortOrder: 2},
					{Action: "update", Label: "Modifier une déclaration", Description: "Mettre à jour une déclaration en brouillon", SortOrder: 3},
					{Action: "delete", Label: "Supprimer une déclaration", Description: "Supprimer une déclaration en brouillon", SortOrder: 4},
					{Action: "submit", Label: "Déposer une déclaration", Description: "Marquer une déclaration comme déposée auprès de l'administration", SortOrder: 5},
				},
			},
		},
	},
	{
		Module: "training",
		Menus: []MenuDef{
			{
				Menu: "courses",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les formations", Description: "Accéder au catalogue des formations", SortOrder: 1},
					{Action: "create", Label: "Créer une formation", Description: "Ajouter une formation au catalogue", SortOrder: 2},
					{Action: "update", Label: "Modifier une formation", Description: "Mettre à jour une formation existante", SortOrder: 3},
					{Action: "delete", Label: "Supprimer une formation", Description: "Retirer une formation du catalogue", SortOrder: 4},
				},
			},
			{
				Menu: "sessions",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les sessions", Description: "Accéder au planning des sessions de formation", SortOrder: 1},
					{Action: "create", Label: "Créer une session", Description: "Planifier une nouvelle session", SortOrder: 2},
					{Action: "update", Label: "Modifier une session", Description: "Mettre à jour une session planifiée", SortOrder: 3},
					{Action: "delete", Label: "Supprimer une session", Description: "Annuler et supprimer une session", SortOrder: 4},
					{Action: "assign_professor", Label: "Affecter un professeur", Description: "Affecter ou changer le professeur d'une session", SortOrder: 5},
				},
			},
			{
				Menu: "trainees",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les stagiaires", Description: "Accéder à l'écran des stagiaires", SortOrder: 1},
					{Action: "create", Label: "Créer un stagiaire", Description: "Enregistrer un nouveau stagiaire", SortOrder: 2},
					{Action: "update", Label: "Modifier un stagiaire", Description: "Mettre à jour le dossier d'un stagiaire", SortOrder: 3},
					{Action: "delete", Label: "Supprimer un stagiaire", Description: "Supprimer le dossier d'un stagiaire", SortOrder: 4},
					{Action: "enroll", Label: "Inscrire à une session", Description: "Inscrire un stagiaire à une session de formation", SortOrder: 5},
				},
			},
		},
	},
	{
		Module: "hr",
		Menus: []MenuDef{
			{
				Menu: "employees",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les employés", Description: "Accéder à l'écran du personnel", SortOrder: 1},
					{Action: "create", Label: "Créer un employé", Description: "Enregistrer un nouvel employé", SortOrder: 2},
					{Action: "update", Label: "Modifier un employé", Description: "Mettre à jour le dossier d'un employé", SortOrder: 3},
					{Action: "delete", Label: "Supprimer un employé", Description: "Archiver le dossier d'un employé", SortOrder: 4},
				},
			},
			{
				Menu: "payroll",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir la paie", Description: "Accéder à l'écran de paie", SortOrder: 1},
					{Action: "generate", Label: "Générer les bulletins", Description: "Lancer le calcul des bulletins de paie du mois", SortOrder: 2},
					{Action: "export", Label: "Exporter la paie", Description: "Exporter les états de paie, CNSS et IGR", SortOrder: 3},
				},
			},
			{
				Menu: "attendance",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les présences", Description: "Accéder à l'écran de pointage", SortOrder: 1},
					{Action: "record", Label: "Saisir un pointage", Description: "Enregistrer les présences et absences", SortOrder: 2},
				},
			},
		},
	},
	{
		Module: "commercialization",
		Menus: []MenuDef{
			{
				Menu: "prospects",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les prospects", Description: "Accéder à l'écran des prospects", SortOrder: 1},
					{Action: "create", Label: "Créer un prospect", Description: "Enregistrer un nouveau prospect", SortOrder: 2},
					{Action: "update", Label: "Modifier un prospect", Description: "Mettre à jour la fiche d'un prospect", SortOrder: 3},
					{Action: "delete", Label: "Supprimer un prospect", Description: "Supprimer la fiche d'un prospect", SortOrder: 4},
					{Action: "convert", Label: "Convertir en client", Description: "Convertir un prospect en client", SortOrder: 5},
				},
			},
			{
				Menu: "contracts",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les contrats", Description: "Accéder à l'écran des contrats", SortOrder: 1},
					{Action: "create", Label: "Créer un contrat", Description: "Établir un nouveau contrat", SortOrder: 2},
					{Action: "update", Label: "Modifier un contrat", Description: "Mettre à jour un contrat en cours", SortOrder: 3},
					{Action: "terminate", Label: "Résilier un contrat", Description: "Résilier un contrat en cours", SortOrder: 4},
				},
			},
		},
	},
	{
		Module: "settings",
		Menus: []MenuDef{
			{
				Menu: "users",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les utilisateurs", Description: "Accéder à l'écran des utilisateurs", SortOrder: 1},
					{Action: "create", Label: "Créer un utilisateur", Description: "Ajouter un nouvel utilisateur", SortOrder: 2},
					{Action: "update", Label: "Modifier un utilisateur", Description: "Mettre à jour un compte utilisateur", SortOrder: 3},
					{Action: "delete", Label: "Supprimer un utilisateur", Description: "Désactiver un compte utilisateur", SortOrder: 4},
					{Action: "reset_password", Label: "Réinitialiser le mot de passe", Description: "Réinitialiser le mot de passe d'un utilisateur", SortOrder: 5},
				},
			},
			{
				Menu: "roles",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les rôles", Description: "Accéder à l'écran des rôles", SortOrder: 1},
					{Action: "create", Label: "Créer un rôle", Description: "Ajouter un nouveau rôle", SortOrder: 2},
					{Action: "update", Label: "Modifier un rôle", Description: "Mettre à jour un rôle existant", SortOrder: 3},
					{Action: "delete", Label: "Supprimer un rôle", Description: "Supprimer un rôle sans utilisateur", SortOrder: 4},
					{Action: "assign_permissions", Label: "Affecter les permissions", Description: "Modifier les permissions associées à un rôle", SortOrder: 5},
				},
			},
			{
				Menu: "permissions",
				Actions: []ActionDescriptor{
					{Action: ActionViewPage, Label: "Voir les permissions", Description: "Consulter le référentiel des permissions", SortOrder: 1},
				},
			},
		},
	},
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the frozen catalog built from the registry. The
// build runs once per process; an integrity error panics, aborting startup
// before any request is served.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		defaultCatalog = MustCatalog(registry)
	})
	return defaultCatalog
}
