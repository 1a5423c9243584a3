// Package catalogue stores the rule catalogue as a JSON or YAML file.
//
// The on-disk document keeps rules keyed by id in definition order:
//
//	{
//	  "metadata": {...},
//	  "rules": {"R1": {"IF": [...], "THEN": {"diagnosis": ..., ...}, "CF": 0.9, ...}},
//	  "rule_metadata": {"R1": {"status": "active", "version": "1.0", ...}},
//	  "rule_history": {...}, "nutrient_database": {...}, ...
//	}
//
// Writes go to a temporary file that is renamed into place. Backups are
// plain copies named rules_backup_YYYYMMDD_HHMMSS.json in the backup
// directory.
package catalogue
